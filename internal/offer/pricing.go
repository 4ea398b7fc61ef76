package offer

import (
	"fmt"
	"strings"
	"time"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/validation"
)

const day = 24 * time.Hour

// Nights is ceil(|checkOut - checkIn| in days).
func Nights(checkIn, checkOut time.Time) int {
	diff := checkOut.Sub(checkIn)
	if diff < 0 {
		diff = -diff
	}
	nights := int(diff / day)
	if diff%day != 0 {
		nights++
	}
	return nights
}

// BuildBreakdown computes the price breakdown for a stay. The total is always the
// exact integer sum of its components.
func BuildBreakdown(checkIn, checkOut time.Time, pricePerNight, cleaningFee int64, fees []models.Fee) (models.PriceBreakdown, error) {
	nights := Nights(checkIn, checkOut)
	if nights < 1 {
		return models.PriceBreakdown{}, &validation.ValidationError{
			Field:   "check_out",
			Message: "stay must be at least one night",
		}
	}

	if pricePerNight < 0 {
		return models.PriceBreakdown{}, &validation.ValidationError{Field: "price_per_night", Message: "must be non-negative"}
	}
	if cleaningFee < 0 {
		return models.PriceBreakdown{}, &validation.ValidationError{Field: "cleaning_fee", Message: "must be non-negative"}
	}

	additional := make([]models.Fee, 0, len(fees))
	var feeTotal int64
	for i, fee := range fees {
		if fee.Amount < 0 {
			return models.PriceBreakdown{}, &validation.ValidationError{
				Field:   fmt.Sprintf("additional_fees[%d].amount", i),
				Message: "must be non-negative",
			}
		}
		additional = append(additional, models.Fee{Name: strings.TrimSpace(fee.Name), Amount: fee.Amount})
		feeTotal += fee.Amount
	}

	subtotal := int64(nights) * pricePerNight

	return models.PriceBreakdown{
		Nights:         nights,
		PricePerNight:  pricePerNight,
		Subtotal:       subtotal,
		CleaningFee:    cleaningFee,
		AdditionalFees: additional,
		Total:          subtotal + cleaningFee + feeTotal,
	}, nil
}

// FormatAmount renders minor units as "CHF 38'000.00".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	units := fmt.Sprintf("%d", amount/100)
	var grouped strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			grouped.WriteByte('\'')
		}
		grouped.WriteRune(r)
	}

	return fmt.Sprintf("%s %s%s.%02d", currency, sign, grouped.String(), amount%100)
}
