package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/offer"
)

// EmailWebhook handles POST /webhooks/email
func (h *Handler) EmailWebhook(w http.ResponseWriter, r *http.Request) {
	var evt models.EmailEvent
	if !h.decode(w, r, &evt) {
		return
	}

	h.logger.Info("email webhook received",
		zap.String("type", evt.Type),
		zap.String("email_id", evt.Data.EmailID),
	)

	err := h.service.HandleEmailEvent(r.Context(), evt)

	// The provider retries anything but 2xx. An event for an offer that cannot
	// take it will never succeed, so it is logged and acknowledged.
	var stateErr *offer.InvalidStateError
	if errors.As(err, &stateErr) || errors.Is(err, offer.ErrRecordNotFound) {
		h.logger.Warn("email event not applied",
			zap.String("type", evt.Type),
			zap.String("offer_id", evt.Data.Tags["offer_id"]),
			zap.Error(err),
		)
		err = nil
	}
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
