package models

import "time"

// OfferDocument is the renderer-agnostic content of an offer document.
type OfferDocument struct {
	OfferID     string           `json:"offer_id"`
	OfferNumber string           `json:"offer_number"`
	Version     int              `json:"version"`
	IssuedOn    string           `json:"issued_on"`
	ValidUntil  string           `json:"valid_until"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Property    DocumentProperty `json:"property"`
	Customer    DocumentCustomer `json:"customer"`
	Currency    string           `json:"currency"`
	Breakdown   PriceBreakdown   `json:"breakdown"`
	Lines       []DocumentLine   `json:"lines"`
	Total       string           `json:"total"`
	Notes       string           `json:"notes,omitempty"`
}

// DocumentProperty is the property section of an offer document.
type DocumentProperty struct {
	Name            string   `json:"name"`
	TypeLabel       string   `json:"type_label"`
	StreetAddress   string   `json:"street_address"`
	City            string   `json:"city"`
	PostalCode      string   `json:"postal_code"`
	DistanceToVenue string   `json:"distance_to_venue"`
	Bedrooms        int      `json:"bedrooms"`
	Bathrooms       int      `json:"bathrooms"`
	MaxOccupancy    int      `json:"max_occupancy"`
	Amenities       []string `json:"amenities"`
}

// DocumentCustomer is the addressee section of an offer document.
type DocumentCustomer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
}

// DocumentLine is one formatted price line.
type DocumentLine struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}
