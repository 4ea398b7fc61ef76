package offer

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"booking-offer-api/internal/models"
)

const (
	DefaultCurrency   = "CHF"
	defaultPostalCode = "7270"
	documentDate      = "2 January 2006"
)

// DefaultAmenities is used when a property lists none.
var DefaultAmenities = []string{"Electricity", "Heating", "WiFi", "Bedding", "Towels"}

var (
	// Swiss postal codes of the Davos/Graubuenden area start with 7.
	postalCodeRegex = regexp.MustCompile(`\b(7\d{3})\b`)
	cityTailRegex   = regexp.MustCompile(`(?i),?\s*7\d{3}\s+\w+.*$`)
)

// BuildOfferDocument assembles the renderer-agnostic content of an offer. It is a
// pure function of its inputs.
func BuildOfferDocument(o models.Offer, property models.Property, customer models.Customer) models.OfferDocument {
	return BuildOfferDocumentIn(o, property, customer, DefaultCurrency)
}

// BuildOfferDocumentIn is BuildOfferDocument with an explicit currency code.
func BuildOfferDocumentIn(o models.Offer, property models.Property, customer models.Customer, currency string) models.OfferDocument {
	if currency == "" {
		currency = DefaultCurrency
	}

	amenities := DefaultAmenities
	if len(property.Amenities) > 0 {
		amenities = property.Amenities
	}

	b := o.Breakdown
	lines := []models.DocumentLine{{
		Label:  fmt.Sprintf("Accommodation (%d %s x %s)", b.Nights, plural(b.Nights, "night", "nights"), FormatAmount(b.PricePerNight, currency)),
		Amount: FormatAmount(b.Subtotal, currency),
	}}
	if b.CleaningFee > 0 {
		lines = append(lines, models.DocumentLine{Label: "Final cleaning", Amount: FormatAmount(b.CleaningFee, currency)})
	}
	for _, fee := range b.AdditionalFees {
		lines = append(lines, models.DocumentLine{Label: fee.Name, Amount: FormatAmount(fee.Amount, currency)})
	}

	return models.OfferDocument{
		OfferID:     o.ID,
		OfferNumber: o.OfferNumber,
		Version:     o.Version,
		IssuedOn:    o.CreatedAt.UTC().Format(documentDate),
		ValidUntil:  o.ExpiresAt.UTC().Format(documentDate),
		CreatedAt:   o.CreatedAt.UTC(),
		ExpiresAt:   o.ExpiresAt.UTC(),
		Property: models.DocumentProperty{
			Name:            property.Name,
			TypeLabel:       PropertyTypeLabel(property.PropertyType),
			StreetAddress:   CleanAddress(property.Address),
			City:            property.City,
			PostalCode:      PostalCode(property.Address, property.City),
			DistanceToVenue: FormatDistance(property.DistanceToVenueKm),
			Bedrooms:        property.Rooms,
			Bathrooms:       property.Bathrooms,
			MaxOccupancy:    property.Capacity,
			Amenities:       append([]string(nil), amenities...),
		},
		Customer: models.DocumentCustomer{
			Name:    customer.Name,
			Email:   customer.Email,
			Company: customer.Company,
		},
		Currency:  currency,
		Breakdown: copyBreakdown(b),
		Lines:     lines,
		Total:     FormatAmount(b.Total, currency),
		Notes:     o.Notes,
	}
}

// PropertyTypeLabel turns "holiday_apartment" into "HOLIDAY APARTMENT FOR RENT".
func PropertyTypeLabel(propertyType string) string {
	t := strings.TrimSpace(propertyType)
	if t == "" {
		t = "apartment"
	}
	return strings.ToUpper(strings.ReplaceAll(t, "_", " ")) + " FOR RENT"
}

// CleanAddress strips an embedded "7270 Davos ..." tail and flattens line breaks.
func CleanAddress(address string) string {
	cleaned := cityTailRegex.ReplaceAllString(address, "")
	cleaned = strings.ReplaceAll(cleaned, "\n", ", ")
	return strings.TrimSpace(cleaned)
}

// PostalCode extracts a 7xxx postal code from the address, then the city, and
// falls back to CH-7270. The fallback is an approximation.
func PostalCode(address, city string) string {
	if m := postalCodeRegex.FindStringSubmatch(address); m != nil {
		return "CH-" + m[1]
	}
	if m := postalCodeRegex.FindStringSubmatch(city); m != nil {
		return "CH-" + m[1]
	}
	return "CH-" + defaultPostalCode
}

// FormatDistance renders meters under 1 km and kilometers with one decimal otherwise.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

func copyBreakdown(b models.PriceBreakdown) models.PriceBreakdown {
	fees := make([]models.Fee, len(b.AdditionalFees))
	copy(fees, b.AdditionalFees)
	b.AdditionalFees = fees
	return b
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
