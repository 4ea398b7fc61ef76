package offer

import "booking-offer-api/internal/models"

// transitions is the legal offer transition graph. Terminal states have no entry.
var transitions = map[models.OfferStatus][]models.OfferStatus{
	models.OfferStatusDraft:  {models.OfferStatusSent, models.OfferStatusExpired},
	models.OfferStatusSent:   {models.OfferStatusViewed, models.OfferStatusAccepted, models.OfferStatusDeclined, models.OfferStatusExpired},
	models.OfferStatusViewed: {models.OfferStatusAccepted, models.OfferStatusDeclined, models.OfferStatusExpired},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to models.OfferStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns an *InvalidStateError unless from -> to is legal.
func Transition(op string, from, to models.OfferStatus) error {
	if !CanTransition(from, to) {
		return &InvalidStateError{Operation: op, Current: from, Target: to}
	}
	return nil
}

// Expirable reports whether an offer in status s is touched by the expiry sweep.
func Expirable(s models.OfferStatus) bool {
	return CanTransition(s, models.OfferStatusExpired)
}

// RequestStatusAfterCreate returns the status a booking request moves to when an
// offer is drafted for it. Requests already past review are never regressed.
func RequestStatusAfterCreate(current models.BookingStatus) (models.BookingStatus, bool) {
	if current == models.BookingStatusNew {
		return models.BookingStatusUnderReview, true
	}
	return current, false
}
