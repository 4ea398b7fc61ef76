package offer

import (
	"errors"
	"fmt"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/validation"
)

// Storage sentinels. Stores wrap these so callers can branch with errors.Is.
var (
	ErrRecordNotFound       = errors.New("record not found")
	ErrDuplicateOfferNumber = errors.New("duplicate offer number")
	ErrDuplicateVersion     = errors.New("duplicate offer version for request")
	ErrStatusChanged        = errors.New("offer status changed concurrently")
)

// ValidationError is malformed input. It is the validation package's type so
// handlers only need one errors.As target.
type ValidationError = validation.ValidationError

// NotFoundError reports a missing offer, booking request, property or customer.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// InvalidStateError reports an operation that is not legal in the offer's current state.
type InvalidStateError struct {
	Operation string
	Current   models.OfferStatus
	Target    models.OfferStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s offer: transition %s -> %s is not allowed", e.Operation, e.Current, e.Target)
}

// ConflictError reports a uniqueness violation that survived every retry.
type ConflictError struct {
	Field    string
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s after %d attempts", e.Field, e.Attempts)
}

// NotFound builds a NotFoundError; stores use it so the entity name is preserved.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}
