package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/pdf"
	"booking-offer-api/internal/validation"
)

// CreateOffer handles POST /offers
func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOfferRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.RequestID = validation.SanitizeString(req.RequestID)

	o, err := h.service.CreateOffer(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, o)
}

// GetOffer handles GET /offers/{id}
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOffer(r.Context(), urlID(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, o)
}

// SendOffer handles POST /offers/{id}/send
func (h *Handler) SendOffer(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.SendOffer(r.Context(), urlID(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// MarkViewed handles POST /offers/{id}/view
func (h *Handler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkViewed)
}

// AcceptOffer handles POST /offers/{id}/accept
func (h *Handler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.AcceptOffer)
}

// DeclineOffer handles POST /offers/{id}/decline
func (h *Handler) DeclineOffer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.DeclineOffer)
}

// MarkExpired handles POST /offers/{id}/expire
func (h *Handler) MarkExpired(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkExpired)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (*models.Offer, error)) {
	o, err := op(r.Context(), urlID(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, o)
}

// ExpireStaleOffers handles POST /offers/expire-stale. An optional RFC3339 'now'
// query parameter sweeps as of that instant.
func (h *Handler) ExpireStaleOffers(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	if nowParam := r.URL.Query().Get("now"); nowParam != "" {
		parsed, err := time.Parse(time.RFC3339, validation.SanitizeString(nowParam))
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid 'now' parameter, must be RFC3339 format")
			return
		}
		now = parsed.UTC()
	}

	n, err := h.service.ExpireStaleOffers(r.Context(), now)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ExpireStaleResponse{Expired: n, SweptAt: now})
}

// GetOfferDocument handles GET /offers/{id}/document
func (h *Handler) GetOfferDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.OfferDocument(r.Context(), urlID(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, doc)
}

// GetOfferPDF handles GET /offers/{id}/pdf
func (h *Handler) GetOfferPDF(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		h.respondError(w, http.StatusNotImplemented, "pdf rendering is not configured")
		return
	}

	doc, err := h.service.OfferDocument(r.Context(), urlID(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	data, err := h.renderer.Render(*doc)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+pdf.Filename(*doc)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetOfferActivity handles GET /offers/{id}/activity
func (h *Handler) GetOfferActivity(w http.ResponseWriter, r *http.Request) {
	if h.activity == nil {
		h.respondError(w, http.StatusNotImplemented, "activity log is not configured")
		return
	}

	o, err := h.service.GetOffer(r.Context(), urlID(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	entries, err := h.activity.ListActivity(r.Context(), "offer", o.ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, entries)
}
