package offer

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/validation"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildBreakdown(t *testing.T) {
	b, err := BuildBreakdown(date(2026, 1, 17), date(2026, 1, 25), 2500, 300, nil)
	if err != nil {
		t.Fatalf("BuildBreakdown failed: %v", err)
	}

	if b.Nights != 8 || b.Subtotal != 20000 || b.Total != 20300 {
		t.Errorf("Unexpected breakdown %+v", b)
	}
	if b.AdditionalFees == nil {
		t.Error("Expected an empty, non-nil fee list")
	}
}

func TestBuildBreakdown_TotalIsExactSum(t *testing.T) {
	fees := []models.Fee{{Name: "Shuttle", Amount: 4550}, {Name: "Tax", Amount: 333}}
	b, err := BuildBreakdown(date(2026, 1, 19), date(2026, 1, 24), 38000_00, 150_00, fees)
	if err != nil {
		t.Fatalf("BuildBreakdown failed: %v", err)
	}

	want := int64(5*38000_00 + 150_00 + 4550 + 333)
	if b.Total != want {
		t.Errorf("Expected total %d, got %d", want, b.Total)
	}
	if !reflect.DeepEqual(b.AdditionalFees, fees) {
		t.Errorf("Fees were altered: %+v", b.AdditionalFees)
	}
}

func TestBuildBreakdown_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		in, out  time.Time
		price    int64
		cleaning int64
		fees     []models.Fee
		field    string
	}{
		{"same day", date(2026, 1, 17), date(2026, 1, 17), 100, 0, nil, "check_out"},
		{"negative price", date(2026, 1, 17), date(2026, 1, 18), -1, 0, nil, "price_per_night"},
		{"negative cleaning", date(2026, 1, 17), date(2026, 1, 18), 100, -5, nil, "cleaning_fee"},
		{"negative fee", date(2026, 1, 17), date(2026, 1, 18), 100, 0, []models.Fee{{Name: "x", Amount: -1}}, "additional_fees[0].amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildBreakdown(tt.in, tt.out, tt.price, tt.cleaning, tt.fees)
			var validationErr *validation.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, validationErr.Field)
			}
		})
	}
}

func TestNights(t *testing.T) {
	tests := []struct {
		name    string
		in, out time.Time
		want    int
	}{
		{"whole days", date(2026, 1, 17), date(2026, 1, 25), 8},
		{"partial day rounds up", date(2026, 1, 17), date(2026, 1, 18).Add(2 * time.Hour), 2},
		{"reversed", date(2026, 1, 25), date(2026, 1, 17), 8},
		{"zero", date(2026, 1, 17), date(2026, 1, 17), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Nights(tt.in, tt.out); got != tt.want {
				t.Errorf("Expected %d nights, got %d", tt.want, got)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "CHF 0.00"},
		{20300, "CHF 203.00"},
		{38000_00, "CHF 38'000.00"},
		{123456789, "CHF 1'234'567.89"},
		{-505, "CHF -5.05"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.amount, "CHF"); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestTransitions(t *testing.T) {
	all := []models.OfferStatus{
		models.OfferStatusDraft, models.OfferStatusSent, models.OfferStatusViewed,
		models.OfferStatusAccepted, models.OfferStatusDeclined, models.OfferStatusExpired,
	}
	legal := map[[2]models.OfferStatus]bool{
		{models.OfferStatusDraft, models.OfferStatusSent}:      true,
		{models.OfferStatusDraft, models.OfferStatusExpired}:   true,
		{models.OfferStatusSent, models.OfferStatusViewed}:     true,
		{models.OfferStatusSent, models.OfferStatusAccepted}:   true,
		{models.OfferStatusSent, models.OfferStatusDeclined}:   true,
		{models.OfferStatusSent, models.OfferStatusExpired}:    true,
		{models.OfferStatusViewed, models.OfferStatusAccepted}: true,
		{models.OfferStatusViewed, models.OfferStatusDeclined}: true,
		{models.OfferStatusViewed, models.OfferStatusExpired}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			want := legal[[2]models.OfferStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}

			err := Transition("op", from, to)
			if want && err != nil {
				t.Errorf("Transition(%s, %s) failed: %v", from, to, err)
			}
			if !want {
				var stateErr *InvalidStateError
				if !errors.As(err, &stateErr) || stateErr.Current != from || stateErr.Target != to {
					t.Errorf("Transition(%s, %s) = %v, want InvalidStateError", from, to, err)
				}
			}
		}

		if from.Terminal() && Expirable(from) {
			t.Errorf("Terminal status %s must not be expirable", from)
		}
	}
}

func TestRequestStatusAfterCreate(t *testing.T) {
	if next, ok := RequestStatusAfterCreate(models.BookingStatusNew); !ok || next != models.BookingStatusUnderReview {
		t.Errorf("Expected new -> under_review, got %s %v", next, ok)
	}
	for _, s := range []models.BookingStatus{models.BookingStatusOfferSent, models.BookingStatusNegotiation, models.BookingStatusAccepted} {
		if _, ok := RequestStatusAfterCreate(s); ok {
			t.Errorf("Request in %s must not change on offer creation", s)
		}
	}
}

func TestRandomNumbers(t *testing.T) {
	now := date(2026, 3, 1)
	seen := map[string]bool{}

	for i := 0; i < 200; i++ {
		n, err := RandomNumbers{}.Next(now)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !NumberPattern.MatchString(n) {
			t.Fatalf("%q does not match BSD-YYYY-XXXXXX", n)
		}
		if n[4:8] != "2026" {
			t.Errorf("Expected year 2026 in %q", n)
		}
		seen[n] = true
	}

	if len(seen) < 195 {
		t.Errorf("Expected mostly distinct numbers, got %d of 200", len(seen))
	}
}

func TestErrors(t *testing.T) {
	err := NotFound("offer", "abc")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Error("NotFoundError should match ErrRecordNotFound")
	}
	if err.Error() != "offer abc not found" {
		t.Errorf("Unexpected message %q", err.Error())
	}

	conflict := &ConflictError{Field: "offer_number", Attempts: 5}
	if conflict.Error() != "conflict on offer_number after 5 attempts" {
		t.Errorf("Unexpected message %q", conflict.Error())
	}
}

func testDocumentInputs() (models.Offer, models.Property, models.Customer) {
	created := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	breakdown, _ := BuildBreakdown(date(2026, 1, 17), date(2026, 1, 25), 2500, 300, []models.Fee{{Name: "Shuttle", Amount: 1000}})

	o := models.Offer{
		ID:          "0b6f3a6e-0c4e-4bb5-9a57-3e4b0f2e6a11",
		OfferNumber: "BSD-2026-7QX2KD",
		Breakdown:   breakdown,
		TotalPrice:  breakdown.Total,
		Version:     2,
		ExpiresAt:   created.AddDate(0, 0, 7),
		Status:      models.OfferStatusDraft,
		CreatedAt:   created,
	}
	p := models.Property{
		Name:              "Chalet Edelweiss",
		PropertyType:      "chalet",
		Address:           "Promenade 12, 7270 Davos Platz",
		City:              "Davos",
		Rooms:             3,
		Bathrooms:         2,
		Capacity:          6,
		DistanceToVenueKm: 0.45,
	}
	c := models.Customer{Name: "Anna Muster", Email: "anna@example.com", Company: "ACME AG"}
	return o, p, c
}

func TestBuildOfferDocument(t *testing.T) {
	o, p, c := testDocumentInputs()

	doc := BuildOfferDocument(o, p, c)

	if doc.Total != "CHF 213.00" {
		t.Errorf("Unexpected total %q", doc.Total)
	}
	if len(doc.Lines) != 3 {
		t.Fatalf("Expected stay, cleaning and shuttle lines, got %+v", doc.Lines)
	}
	if doc.Lines[0].Label != "Accommodation (8 nights x CHF 25.00)" {
		t.Errorf("Unexpected first line %q", doc.Lines[0].Label)
	}
	if doc.IssuedOn != "10 January 2026" || doc.ValidUntil != "17 January 2026" {
		t.Errorf("Unexpected dates %q / %q", doc.IssuedOn, doc.ValidUntil)
	}
	if doc.Property.StreetAddress != "Promenade 12" || doc.Property.PostalCode != "CH-7270" {
		t.Errorf("Unexpected address %q %q", doc.Property.StreetAddress, doc.Property.PostalCode)
	}
	if doc.Property.DistanceToVenue != "450 m" {
		t.Errorf("Unexpected distance %q", doc.Property.DistanceToVenue)
	}
	if doc.Property.TypeLabel != "CHALET FOR RENT" {
		t.Errorf("Unexpected type label %q", doc.Property.TypeLabel)
	}
	if !reflect.DeepEqual(doc.Property.Amenities, DefaultAmenities) {
		t.Errorf("Expected default amenities, got %v", doc.Property.Amenities)
	}
	if doc.Customer.Company != "ACME AG" {
		t.Errorf("Unexpected customer %+v", doc.Customer)
	}
}

func TestBuildOfferDocument_IsPure(t *testing.T) {
	o, p, c := testDocumentInputs()

	first := BuildOfferDocument(o, p, c)
	second := BuildOfferDocument(o, p, c)
	if !reflect.DeepEqual(first, second) {
		t.Error("Identical inputs produced different documents")
	}

	first.Property.Amenities[0] = "changed"
	first.Breakdown.AdditionalFees[0].Amount = 1
	if DefaultAmenities[0] == "changed" || o.Breakdown.AdditionalFees[0].Amount == 1 {
		t.Error("Document shares mutable state with its inputs")
	}
}

func TestPostalCodeAndDistance(t *testing.T) {
	if got := PostalCode("Talstrasse 5", "7260 Davos Dorf"); got != "CH-7260" {
		t.Errorf("Expected code from city, got %s", got)
	}
	if got := PostalCode("Bahnhofstrasse 1", "Zurich"); got != "CH-7270" {
		t.Errorf("Expected fallback, got %s", got)
	}
	if got := FormatDistance(2.25); got != "2.2 km" && got != "2.3 km" {
		t.Errorf("Unexpected distance %s", got)
	}
	if got := FormatDistance(1); got != "1.0 km" {
		t.Errorf("Unexpected distance %s", got)
	}
}
