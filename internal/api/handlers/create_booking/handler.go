package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-VenueBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-VenueBookingService/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-VenueBookingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgMissingUserID       = "отсутствует ID пользователя"
	msgInvalidToken        = "некорректный токен слота"
	msgTokenExpired        = "котировка слота устарела, обновите список слотов"
	msgPriceMismatch       = "цена слота изменилась, обновите список слотов"
	msgSlotMisaligned      = "слот не совпадает с актуальной сеткой расписания"
	msgSlotTaken           = "слот уже занят"
	msgDoubleBooking       = "слот удерживается другим активным бронированием"
	msgIdempotencyConflict = "ключ идемпотентности уже использован с другими параметрами"
	msgHeadcountExceeded   = "количество человек превышает вместимость ресурса"
	msgResourceNotFound    = "ресурс больше не доступен"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrSlotTaken):
			h.logger.Warn("POST /bookings - Slot taken: user_id=%d", userID)
			handlers.RespondError(w, http.StatusConflict, msgSlotTaken)

		case errors.Is(err, createBooking.ErrDoubleBooking):
			h.logger.Warn("POST /bookings - Double booking: user_id=%d", userID)
			handlers.RespondError(w, http.StatusConflict, msgDoubleBooking)

		case errors.Is(err, createBooking.ErrIdempotencyConflict):
			h.logger.Warn("POST /bookings - Idempotency conflict: user_id=%d, key=%s", userID, req.IdempotencyKey)
			handlers.RespondError(w, http.StatusConflict, msgIdempotencyConflict)

		case errors.Is(err, createBooking.ErrPriceMismatch):
			h.logger.Warn("POST /bookings - Price mismatch: user_id=%d", userID)
			handlers.RespondError(w, http.StatusConflict, msgPriceMismatch)

		case errors.Is(err, createBooking.ErrTokenExpired):
			h.logger.Warn("POST /bookings - Token expired: user_id=%d", userID)
			handlers.RespondError(w, http.StatusGone, msgTokenExpired)

		case errors.Is(err, createBooking.ErrInvalidToken):
			h.logger.Warn("POST /bookings - Invalid token: user_id=%d", userID)
			handlers.RespondBadRequest(w, msgInvalidToken)

		case errors.Is(err, createBooking.ErrInvalidSlotAlignment):
			h.logger.Warn("POST /bookings - Slot misaligned: user_id=%d", userID)
			handlers.RespondError(w, http.StatusConflict, msgSlotMisaligned)

		case errors.Is(err, createBooking.ErrHeadcountExceeded):
			h.logger.Warn("POST /bookings - Headcount exceeded: user_id=%d, headcount=%d", userID, req.Headcount)
			handlers.RespondBadRequest(w, msgHeadcountExceeded)

		case errors.Is(err, createBooking.ErrResourceNotFound):
			h.logger.Warn("POST /bookings - Resource not found: user_id=%d", userID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}

	h.logger.Info("POST /bookings - Created %d booking(s): user_id=%d, total=%.2f",
		len(result.Bookings), userID, result.TotalAmount)
	handlers.RespondJSON(w, status, result)
}
