package collect_venue_payment

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-VenueBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-VenueBookingService/internal/service/bookings"
)

const (
	msgInvalidReference   = "некорректный код бронирования"
	msgNotFound           = "бронирование не найдено"
	msgLockExpired        = "срок удержания слота истёк"
	msgNotAwaitingPayment = "бронирование не ожидает оплату на месте"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{ref}/collect
// Вызывается стойкой площадки при очном сборе оплаты
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ref := vars["ref"]
	if ref == "" {
		handlers.RespondBadRequest(w, msgInvalidReference)
		return
	}

	result, err := h.service.CollectVenuePayment(r.Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{ref}/collect - Booking not found: ref=%s", ref)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrLockExpired):
			h.logger.Warn("POST /bookings/{ref}/collect - Lock expired: ref=%s", ref)
			handlers.RespondError(w, http.StatusConflict, msgLockExpired)

		case errors.Is(err, bookings.ErrNotAwaitingVenuePayment):
			h.logger.Warn("POST /bookings/{ref}/collect - Not awaiting venue payment: ref=%s", ref)
			handlers.RespondError(w, http.StatusConflict, msgNotAwaitingPayment)

		default:
			h.logger.Error("POST /bookings/{ref}/collect - Failed: ref=%s, error=%v", ref, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{ref}/collect - Collected %.2f: ref=%s", result.AmountCollected, ref)
	handlers.RespondJSON(w, http.StatusOK, result)
}
