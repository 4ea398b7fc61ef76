package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"booking-offer-api/internal/models"
)

const (
	pageWidth  = 595.28
	pageHeight = 841.89
	margin     = 40.0
)

type rgb struct{ r, g, b int }

var (
	gold     = rgb{184, 134, 11}
	charcoal = rgb{26, 26, 26}
	gray     = rgb{102, 102, 102}
	lightBg  = rgb{249, 246, 241}
	panelBg  = rgb{245, 245, 245}
)

// Renderer draws offer documents as single-page A4 PDFs.
type Renderer struct {
	Brand    string // footer and author line
	Headline string // banner text, e.g. the event the stay is for
	Subline  string
}

// NewRenderer returns a renderer with the house branding.
func NewRenderer() *Renderer {
	return &Renderer{
		Brand:    "BestStayDavos",
		Headline: "INTERNATIONAL CONFERENCE",
		Subline:  "DAVOS",
	}
}

// Render returns the PDF bytes for doc. Output only depends on doc, so a
// document rendered again later is byte-identical to the one sent.
func (r *Renderer) Render(doc models.OfferDocument) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetCreationDate(doc.CreatedAt)
	pdf.SetModificationDate(doc.CreatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(fmt.Sprintf("Offer %s - %s", doc.OfferNumber, doc.Property.Name), true)
	pdf.SetAuthor(r.Brand, true)
	pdf.SetSubject("Accommodation offer for "+doc.Property.Name, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Banner
	fill(pdf, charcoal)
	pdf.Rect(0, 0, pageWidth, 80, "F")
	text(pdf, gold)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(0, 22)
	pdf.CellFormat(pageWidth, 18, tr(r.Headline), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(pageWidth, 16, tr(r.Subline), "", 1, "C", false, 0, "")

	y := 100.0
	text(pdf, gray)
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(margin, y)
	pdf.CellFormat(0, 14, tr(doc.Property.TypeLabel), "", 1, "L", false, 0, "")

	y += 22
	text(pdf, charcoal)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(margin, y)
	pdf.CellFormat(0, 26, tr(doc.Property.Name), "", 1, "L", false, 0, "")

	// Price box
	y += 44
	boxHeight := 70.0 + 16*float64(len(doc.Lines))
	fill(pdf, lightBg)
	pdf.Rect(margin, y, pageWidth-2*margin, boxHeight, "F")

	text(pdf, gray)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(margin+20, y+12)
	pdf.CellFormat(0, 12, "TOTAL PRICE", "", 1, "L", false, 0, "")

	text(pdf, gold)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetXY(margin+20, y+26)
	pdf.CellFormat(0, 30, tr(doc.Total), "", 1, "L", false, 0, "")

	lineY := y + 62
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range doc.Lines {
		text(pdf, gray)
		pdf.SetXY(margin+20, lineY)
		pdf.CellFormat(330, 14, tr(line.Label), "", 0, "L", false, 0, "")
		text(pdf, charcoal)
		pdf.CellFormat(pageWidth-2*margin-370, 14, tr(line.Amount), "", 0, "R", false, 0, "")
		lineY += 16
	}

	// Address
	y += boxHeight + 24
	for _, row := range [][2]string{
		{"Street Address", doc.Property.StreetAddress},
		{"City", doc.Property.City},
		{"Postal Code", doc.Property.PostalCode},
	} {
		label(pdf, tr, margin, y, row[0])
		value(pdf, tr, margin+110, y, row[1])
		y += 20
	}

	// Property information
	y += 16
	text(pdf, charcoal)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(margin, y)
	pdf.CellFormat(0, 16, "Property Information", "", 1, "L", false, 0, "")
	y += 20
	draw(pdf, gold)
	pdf.SetLineWidth(2)
	pdf.Line(margin, y, margin+180, y)
	y += 14

	info := [][2]string{
		{"Distance to Venue", doc.Property.DistanceToVenue},
		{"Maximum Occupancy", strconv.Itoa(doc.Property.MaxOccupancy) + " guests"},
		{"Bedrooms", strconv.Itoa(doc.Property.Bedrooms)},
		{"Bathrooms", strconv.Itoa(doc.Property.Bathrooms)},
		{"Duration", fmt.Sprintf("%d nights", doc.Breakdown.Nights)},
		{"Valid Until", doc.ValidUntil},
	}
	colWidth := (pageWidth - 2*margin) / 2
	for i, row := range info {
		x := margin + float64(i%2)*colWidth
		rowY := y + float64(i/2)*36
		label(pdf, tr, x, rowY, row[0])
		value(pdf, tr, x, rowY+13, row[1])
	}
	y += float64((len(info)+1)/2)*36 + 12

	// Services
	fill(pdf, panelBg)
	pdf.Rect(margin, y, pageWidth-2*margin, 60, "F")
	text(pdf, charcoal)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(margin+15, y+12)
	pdf.CellFormat(0, 12, "SERVICES INCLUDED", "", 1, "L", false, 0, "")
	text(pdf, gray)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(margin+15, y+28)
	pdf.MultiCell(pageWidth-2*margin-30, 12, tr(strings.Join(doc.Property.Amenities, ", ")), "", "L", false)
	y += 76

	if doc.Notes != "" {
		text(pdf, charcoal)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetXY(margin, y)
		pdf.MultiCell(pageWidth-2*margin, 12, tr(doc.Notes), "", "L", false)
	}

	// Footer
	fill(pdf, charcoal)
	pdf.Rect(0, pageHeight-40, pageWidth, 40, "F")
	pdf.SetFont("Helvetica", "", 8)
	text(pdf, gray)
	pdf.SetXY(margin, pageHeight-26)
	pdf.CellFormat(200, 10, tr(fmt.Sprintf("Offer #%s (v%d) issued %s", doc.OfferNumber, doc.Version, doc.IssuedOn)), "", 0, "L", false, 0, "")
	text(pdf, gold)
	pdf.SetXY(0, pageHeight-26)
	pdf.CellFormat(pageWidth, 10, tr(r.Brand), "", 0, "C", false, 0, "")
	text(pdf, gray)
	pdf.SetXY(pageWidth-margin-40, pageHeight-26)
	pdf.CellFormat(40, 10, "Page 1", "", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render offer %s: %w", doc.OfferNumber, err)
	}

	return buf.Bytes(), nil
}

// Filename is the attachment name used for doc.
func Filename(doc models.OfferDocument) string {
	return "offer-" + doc.OfferNumber + ".pdf"
}

func label(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, s string) {
	text(pdf, gray)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(x, y)
	pdf.CellFormat(100, 11, tr(strings.ToUpper(s)), "", 0, "L", false, 0, "")
}

func value(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, s string) {
	text(pdf, charcoal)
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(x, y)
	pdf.CellFormat(240, 13, tr(s), "", 0, "L", false, 0, "")
}

func fill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func text(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func draw(pdf *fpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
