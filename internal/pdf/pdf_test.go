package pdf

import (
	"bytes"
	"testing"
	"time"

	"booking-offer-api/internal/models"
)

func testDocument() models.OfferDocument {
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return models.OfferDocument{
		OfferID:     "0b6f3a6e-0c4e-4bb5-9a57-3e4b0f2e6a11",
		OfferNumber: "BSD-2026-7QX2KD",
		Version:     1,
		IssuedOn:    "10 January 2026",
		ValidUntil:  "17 January 2026",
		CreatedAt:   created,
		ExpiresAt:   created.AddDate(0, 0, 7),
		Property: models.DocumentProperty{
			Name:            "Chalet Edelweiss Grüezi",
			TypeLabel:       "CHALET FOR RENT",
			StreetAddress:   "Promenade 12",
			City:            "Davos",
			PostalCode:      "CH-7270",
			DistanceToVenue: "450 m",
			Bedrooms:        3,
			Bathrooms:       2,
			MaxOccupancy:    6,
			Amenities:       []string{"WiFi", "Sauna"},
		},
		Breakdown: models.PriceBreakdown{Nights: 8},
		Lines: []models.DocumentLine{
			{Label: "Accommodation (8 nights x CHF 25.00)", Amount: "CHF 200.00"},
			{Label: "Final cleaning", Amount: "CHF 3.00"},
		},
		Total: "CHF 203.00",
		Notes: "Early check-in on request.",
	}
}

func TestRender(t *testing.T) {
	data, err := NewRenderer().Render(testDocument())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("Output is not a PDF: %q", data[:min(len(data), 16)])
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer()

	first, err := r.Render(testDocument())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	second, err := r.Render(testDocument())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("Rendering the same document twice produced different bytes")
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(testDocument()); got != "offer-BSD-2026-7QX2KD.pdf" {
		t.Errorf("Unexpected filename %s", got)
	}
}
