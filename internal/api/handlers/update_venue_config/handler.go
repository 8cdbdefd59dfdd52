package update_venue_config

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-VenueBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-VenueBookingService/internal/service/catalog"
	"github.com/m04kA/SMC-VenueBookingService/internal/service/catalog/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidServiceID   = "некорректный ID сервиса"
	msgResourceNotFound   = "ресурс не найден"
)

type Handler struct {
	service CatalogService
	logger  Logger
}

func NewHandler(service CatalogService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/venues/{serviceId}/config
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	serviceID, err := strconv.ParseInt(vars["serviceId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /venues/{serviceId}/config - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	var req models.UpdateVenueConfigRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /venues/{serviceId}/config - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.ServiceID = serviceID

	result, err := h.service.UpdateVenueConfig(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrResourceNotFound):
			h.logger.Warn("PUT /venues/{serviceId}/config - Resource not found: service_id=%d", serviceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, catalog.ErrInvalidInput):
			h.logger.Warn("PUT /venues/{serviceId}/config - Invalid input: service_id=%d, error=%v", serviceID, err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("PUT /venues/{serviceId}/config - Failed: service_id=%d, error=%v", serviceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /venues/{serviceId}/config - Updated: service_id=%d, resources=%d",
		serviceID, len(result.Resources))
	handlers.RespondJSON(w, http.StatusOK, result)
}
