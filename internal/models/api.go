package models

import "time"

// CreateOfferRequest represents the request body for creating an offer.
type CreateOfferRequest struct {
	RequestID      string `json:"request_id"`
	PricePerNight  int64  `json:"price_per_night"`
	CleaningFee    *int64 `json:"cleaning_fee,omitempty"` // nil falls back to the property default
	AdditionalFees []Fee  `json:"additional_fees"`
	Notes          string `json:"notes,omitempty"`
	ValidityDays   *int   `json:"validity_days,omitempty"` // nil means the configured default
}

// CreateBookingRequestRequest is the public inquiry form payload.
type CreateBookingRequestRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone,omitempty"`
	Company         string  `json:"company,omitempty"`
	Country         string  `json:"country,omitempty"`
	PropertyID      string  `json:"property_id"`
	CheckIn         Date    `json:"check_in"`
	CheckOut        Date    `json:"check_out"`
	Guests          int     `json:"guests"`
	SpecialRequests string  `json:"special_requests,omitempty"`
	Source          Channel `json:"source,omitempty"`
}

// SendOfferResponse is returned by the send endpoint. The offer is sent even when
// Warnings is non-empty.
type SendOfferResponse struct {
	Offer    Offer    `json:"offer"`
	Warnings []string `json:"warnings,omitempty"`
}

// ExpireStaleResponse reports the result of an expiry sweep.
type ExpireStaleResponse struct {
	Expired int       `json:"expired"`
	SweptAt time.Time `json:"swept_at"`
}

// EmailEvent is an email-provider webhook event.
type EmailEvent struct {
	Type string         `json:"type"`
	Data EmailEventData `json:"data"`
}

// EmailEventData is the provider payload of an email event.
type EmailEventData struct {
	EmailID string            `json:"email_id"`
	To      []string          `json:"to,omitempty"`
	Subject string            `json:"subject,omitempty"`
	Link    string            `json:"link,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
	Bounce  *struct {
		Message string `json:"message"`
	} `json:"bounce,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Field         string `json:"field,omitempty"`
	CurrentStatus string `json:"current_status,omitempty"`
	TargetStatus  string `json:"target_status,omitempty"`
}
