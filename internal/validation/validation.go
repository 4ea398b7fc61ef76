package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"booking-offer-api/internal/models"
)

var (
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

const (
	maxAmount         = int64(100_000_000_00) // 100M CHF in Rappen
	maxAdditionalFees = 20
	maxValidityDays   = 90
	maxStayNights     = 365
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidateCreateOffer checks the admin-supplied pricing input. It never touches storage.
func ValidateCreateOffer(req models.CreateOfferRequest) error {
	if err := ValidateUUID(req.RequestID, "request_id"); err != nil {
		return err
	}

	if err := validateAmount(req.PricePerNight, "price_per_night"); err != nil {
		return err
	}

	if req.CleaningFee != nil {
		if err := validateAmount(*req.CleaningFee, "cleaning_fee"); err != nil {
			return err
		}
	}

	if len(req.AdditionalFees) > maxAdditionalFees {
		return &ValidationError{
			Field:   "additional_fees",
			Message: fmt.Sprintf("cannot contain more than %d fees", maxAdditionalFees),
		}
	}

	for i, fee := range req.AdditionalFees {
		field := fmt.Sprintf("additional_fees[%d]", i)
		if SanitizeString(fee.Name) == "" {
			return &ValidationError{Field: field + ".name", Message: "is required"}
		}
		if err := validateAmount(fee.Amount, field+".amount"); err != nil {
			return err
		}
	}

	if req.ValidityDays == nil {
		return nil
	}

	if *req.ValidityDays < 1 {
		return &ValidationError{
			Field:   "validity_days",
			Message: "must be at least 1",
		}
	}

	if *req.ValidityDays > maxValidityDays {
		return &ValidationError{
			Field:   "validity_days",
			Message: fmt.Sprintf("cannot exceed %d days", maxValidityDays),
		}
	}

	return nil
}

// ValidateStayDates checks that check-out is strictly after check-in.
func ValidateStayDates(checkIn, checkOut models.Date) error {
	if checkIn.IsZero() {
		return &ValidationError{Field: "check_in", Message: "is required"}
	}

	if checkOut.IsZero() {
		return &ValidationError{Field: "check_out", Message: "is required"}
	}

	if !checkOut.After(checkIn.Time) {
		return &ValidationError{Field: "check_out", Message: "must be after check_in"}
	}

	if checkOut.Sub(checkIn.Time).Hours() > maxStayNights*24 {
		return &ValidationError{
			Field:   "check_out",
			Message: fmt.Sprintf("stay cannot exceed %d nights", maxStayNights),
		}
	}

	return nil
}

func ValidateBookingRequest(req models.CreateBookingRequestRequest) error {
	if SanitizeString(req.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}

	if err := ValidateEmail(req.Email, "email"); err != nil {
		return err
	}

	if err := ValidateUUID(req.PropertyID, "property_id"); err != nil {
		return err
	}

	if err := ValidateStayDates(req.CheckIn, req.CheckOut); err != nil {
		return err
	}

	if req.Guests < 1 {
		return &ValidationError{Field: "guests", Message: "must be at least 1"}
	}

	if req.Source != "" && !req.Source.Valid() {
		return &ValidationError{
			Field:   "source",
			Message: "must be one of email, whatsapp, form, phone",
		}
	}

	return nil
}

func ValidateCustomer(c models.Customer) error {
	if SanitizeString(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	return ValidateEmail(c.Email, "email")
}

func ValidateProperty(p models.Property) error {
	if SanitizeString(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}

	if p.Slug != "" && !slugRegex.MatchString(p.Slug) {
		return &ValidationError{Field: "slug", Message: "must be lower-case words separated by dashes"}
	}

	if SanitizeString(p.Address) == "" {
		return &ValidationError{Field: "address", Message: "is required"}
	}

	if p.Capacity < 1 {
		return &ValidationError{Field: "capacity", Message: "must be at least 1"}
	}

	if p.Rooms < 0 || p.Bathrooms < 0 {
		return &ValidationError{Field: "rooms", Message: "must be non-negative"}
	}

	if p.DistanceToVenueKm < 0 {
		return &ValidationError{Field: "distance_to_venue_km", Message: "must be non-negative"}
	}

	return validateAmount(p.CleaningFee, "cleaning_fee")
}

func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

func ValidateUUID(id, fieldName string) error {
	if id == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: "is required",
		}
	}

	id = SanitizeString(id)

	if !uuidRegex.MatchString(id) {
		return &ValidationError{
			Field:   fieldName,
			Message: "must be a lower-case UUID v4",
		}
	}

	return nil
}

func ValidateEmail(email, fieldName string) error {
	email = SanitizeString(email)
	if email == "" {
		return &ValidationError{Field: fieldName, Message: "is required"}
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: fieldName, Message: "must be a valid email address"}
	}

	return nil
}

func validateAmount(amount int64, fieldName string) error {
	if amount < 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: "must be non-negative",
		}
	}

	if amount > maxAmount {
		return &ValidationError{
			Field:   fieldName,
			Message: "exceeds maximum allowed amount",
		}
	}

	return nil
}
