package models

import "time"

// BookingStatus is the lifecycle status of a booking request.
type BookingStatus string

const (
	BookingStatusNew         BookingStatus = "new"
	BookingStatusUnderReview BookingStatus = "under_review"
	BookingStatusOfferSent   BookingStatus = "offer_sent"
	BookingStatusAccepted    BookingStatus = "accepted"
	BookingStatusNegotiation BookingStatus = "negotiation"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusCompleted   BookingStatus = "completed"
	BookingStatusExpired     BookingStatus = "expired"
	BookingStatusCancelled   BookingStatus = "cancelled"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusNew, BookingStatusUnderReview, BookingStatusOfferSent,
		BookingStatusAccepted, BookingStatusNegotiation, BookingStatusConfirmed,
		BookingStatusCompleted, BookingStatusExpired, BookingStatusCancelled:
		return true
	}
	return false
}

// OfferStatus is the lifecycle status of an offer.
type OfferStatus string

const (
	OfferStatusDraft    OfferStatus = "draft"
	OfferStatusSent     OfferStatus = "sent"
	OfferStatusViewed   OfferStatus = "viewed"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusDeclined OfferStatus = "declined"
	OfferStatusExpired  OfferStatus = "expired"
)

// Terminal reports whether no further transition is allowed out of s.
func (s OfferStatus) Terminal() bool {
	return s == OfferStatusAccepted || s == OfferStatusDeclined || s == OfferStatusExpired
}

// Channel is the inbound channel a booking request arrived through.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelForm     Channel = "form"
	ChannelPhone    Channel = "phone"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelWhatsApp, ChannelForm, ChannelPhone:
		return true
	}
	return false
}

// Customer is a prospective guest.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"` // stored lower-cased
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Property is a rentable accommodation.
type Property struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	PropertyType      string    `json:"property_type,omitempty"` // e.g. "apartment", "chalet"
	Address           string    `json:"address"`
	City              string    `json:"city"`
	Rooms             int       `json:"rooms"`
	Bathrooms         int       `json:"bathrooms"`
	Capacity          int       `json:"capacity"`
	Amenities         []string  `json:"amenities"`
	DistanceToVenueKm float64   `json:"distance_to_venue_km"`
	CleaningFee       int64     `json:"cleaning_fee"` // minor units, default for new offers
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

// BookingRequest is a guest's inquiry for a property and date range.
type BookingRequest struct {
	ID              string        `json:"id"`
	CustomerID      string        `json:"customer_id"`
	PropertyID      string        `json:"property_id"`
	CheckIn         Date          `json:"check_in"`
	CheckOut        Date          `json:"check_out"`
	Guests          int           `json:"guests"`
	Status          BookingStatus `json:"status"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	Source          Channel       `json:"source"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Fee is a named additional charge on an offer.
type Fee struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"` // minor units
}

// PriceBreakdown is the itemised cost computation backing an offer.
// All amounts are integer minor units (Rappen).
type PriceBreakdown struct {
	Nights         int   `json:"nights"`
	PricePerNight  int64 `json:"price_per_night"`
	Subtotal       int64 `json:"subtotal"`
	CleaningFee    int64 `json:"cleaning_fee"`
	AdditionalFees []Fee `json:"additional_fees"`
	Total          int64 `json:"total"`
}

// Offer is a priced, versioned proposal tied to one booking request.
type Offer struct {
	ID          string         `json:"id"`
	OfferNumber string         `json:"offer_number"`
	RequestID   string         `json:"request_id"`
	Breakdown   PriceBreakdown `json:"breakdown"`
	TotalPrice  int64          `json:"total_price"`
	Version     int            `json:"version"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Status      OfferStatus    `json:"status"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
	ViewedAt    *time.Time     `json:"viewed_at,omitempty"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// StatusChange carries the timestamps recorded alongside a status transition.
type StatusChange struct {
	At          time.Time
	SentAt      *time.Time
	ViewedAt    *time.Time
	RespondedAt *time.Time
}

// ActivityLogEntry is an append-only audit record.
type ActivityLogEntry struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	ActorID    string         `json:"actor_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
