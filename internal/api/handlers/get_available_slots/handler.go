package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-VenueBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-VenueBookingService/internal/usecase/get_available_slots"
)

const (
	msgInvalidServiceID = "некорректный ID сервиса"
	msgInvalidDate      = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgDateRequired     = "параметр date обязателен"
	msgActivityNotFound = "активность не найдена"
	msgNoResources      = "под эту активность нет ресурсов"
	msgDateInPast       = "дата в прошлом"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/services/{serviceId}/activities/{activity}/available-slots?date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	serviceID, err := strconv.ParseInt(vars["serviceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /available-slots - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}
	activity := vars["activity"]

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		handlers.RespondBadRequest(w, msgDateRequired)
		return
	}
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		h.logger.Warn("GET /available-slots - Invalid date %q: %v", dateStr, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{
		ServiceID: serviceID,
		Activity:  activity,
		Date:      date,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrActivityNotFound):
			h.logger.Warn("GET /available-slots - Activity not found: service_id=%d, activity=%s", serviceID, activity)
			handlers.RespondNotFound(w, msgActivityNotFound)

		case errors.Is(err, getAvailableSlots.ErrNoResources):
			h.logger.Warn("GET /available-slots - No resources: service_id=%d, activity=%s", serviceID, activity)
			handlers.RespondNotFound(w, msgNoResources)

		case errors.Is(err, getAvailableSlots.ErrInvalidDate):
			h.logger.Warn("GET /available-slots - Invalid date: service_id=%d, date=%s", serviceID, dateStr)
			handlers.RespondBadRequest(w, msgDateInPast)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidServiceID)

		default:
			h.logger.Error("GET /available-slots - Failed: service_id=%d, activity=%s, error=%v", serviceID, activity, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /available-slots - Returned %d slots: service_id=%d, activity=%s, date=%s",
		len(result.Slots), serviceID, activity, dateStr)
	handlers.RespondJSON(w, http.StatusOK, result)
}
