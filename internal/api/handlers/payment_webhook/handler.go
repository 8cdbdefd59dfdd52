package payment_webhook

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-VenueBookingService/internal/api/handlers"
	processPayment "github.com/m04kA/SMC-VenueBookingService/internal/usecase/process_payment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "бронирование не найдено"
	msgInvalidTransition  = "недопустимый переход платёжного статуса"
	msgSlotTaken          = "слот уже занят другим бронированием"
)

// WebhookRequest HTTP request model платёжного шлюза
type WebhookRequest struct {
	ReferenceCode string `json:"referenceCode"`
	Outcome       string `json:"outcome"` // initiated | success | failed
	TransactionID string `json:"transactionId,omitempty"`
}

type Handler struct {
	useCase ProcessPaymentUseCase
	logger  Logger
}

func NewHandler(useCase ProcessPaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/webhook
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /payments/webhook - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &processPayment.Request{
		ReferenceCode: req.ReferenceCode,
		Outcome:       processPayment.Outcome(req.Outcome),
		TransactionID: req.TransactionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, processPayment.ErrBookingNotFound):
			h.logger.Warn("POST /payments/webhook - Booking not found: ref=%s", req.ReferenceCode)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, processPayment.ErrInvalidTransition):
			h.logger.Warn("POST /payments/webhook - Invalid transition: ref=%s, outcome=%s", req.ReferenceCode, req.Outcome)
			handlers.RespondError(w, http.StatusConflict, msgInvalidTransition)

		case errors.Is(err, processPayment.ErrSlotTaken):
			h.logger.Warn("POST /payments/webhook - Slot taken: ref=%s", req.ReferenceCode)
			handlers.RespondError(w, http.StatusConflict, msgSlotTaken)

		case errors.Is(err, processPayment.ErrInvalidInput):
			h.logger.Warn("POST /payments/webhook - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /payments/webhook - Failed: ref=%s, error=%v", req.ReferenceCode, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /payments/webhook - Processed: ref=%s, outcome=%s -> status=%s",
		req.ReferenceCode, req.Outcome, result.Status)
	handlers.RespondJSON(w, http.StatusOK, result)
}
