package handler

import (
	"net/http"

	"booking-offer-api/internal/models"
)

// CreateBookingRequest handles POST /booking-requests
func (h *Handler) CreateBookingRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookingRequestRequest
	if !h.decode(w, r, &req) {
		return
	}

	br, err := h.service.CreateBookingRequest(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, br)
}

// GetBookingRequest handles GET /booking-requests/{id}
func (h *Handler) GetBookingRequest(w http.ResponseWriter, r *http.Request) {
	br, err := h.service.GetBookingRequest(r.Context(), urlID(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, br)
}

// ListRequestOffers handles GET /booking-requests/{id}/offers
func (h *Handler) ListRequestOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ListOffers(r.Context(), urlID(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, offers)
}

// CreateCustomer handles POST /customers
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c models.Customer
	if !h.decode(w, r, &c) {
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), c)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, customer)
}

// CreateProperty handles POST /properties. Properties are active unless the body
// says otherwise.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	p := models.Property{Active: true}
	if !h.decode(w, r, &p) {
		return
	}

	property, err := h.service.CreateProperty(r.Context(), p)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, property)
}

// GetProperty handles GET /properties/{id}
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	property, err := h.service.GetProperty(r.Context(), urlID(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, property)
}
