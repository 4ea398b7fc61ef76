package notification

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"booking-offer-api/internal/features"
	"booking-offer-api/internal/models"
	"booking-offer-api/internal/pdf"
)

// Renderer turns an offer document into PDF bytes.
type Renderer interface {
	Render(doc models.OfferDocument) ([]byte, error)
}

// LogSender only logs offers. It is used when no relay is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, doc models.OfferDocument, recipient string) error {
	s.logger.Info("offer notification",
		zap.String("offer_number", doc.OfferNumber),
		zap.String("recipient", recipient),
		zap.String("total", doc.Total),
	)
	return nil
}

// Message is the JSON body posted to the email relay.
type Message struct {
	From        string            `json:"from"`
	To          []string          `json:"to"`
	Subject     string            `json:"subject"`
	Text        string            `json:"text"`
	Tags        map[string]string `json:"tags"`
	Attachments []Attachment      `json:"attachments,omitempty"`
}

// Attachment is a base64-encoded file.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// WebhookSender posts offers to an HTTP email relay. The relay is expected to
// echo the offer_id tag back in its open-tracking events.
type WebhookSender struct {
	URL           string
	From          string
	SubjectPrefix string
	Client        *http.Client
	Renderer      Renderer // optional; attaches the PDF when set
	Features      *features.Manager
}

func NewWebhookSender(url, from, subjectPrefix string, renderer Renderer, flags *features.Manager) *WebhookSender {
	return &WebhookSender{
		URL:           url,
		From:          from,
		SubjectPrefix: subjectPrefix,
		Client:        &http.Client{Timeout: 30 * time.Second},
		Renderer:      renderer,
		Features:      flags,
	}
}

func (s *WebhookSender) Send(ctx context.Context, doc models.OfferDocument, recipient string) error {
	msg := Message{
		From:    s.From,
		To:      []string{recipient},
		Subject: Subject(s.SubjectPrefix, doc),
		Text:    Body(doc),
		Tags:    map[string]string{"offer_id": doc.OfferID},
	}

	if s.Renderer != nil && (s.Features == nil || s.Features.IsEnabled(features.FeaturePDFAttachment)) {
		data, err := s.Renderer.Render(doc)
		if err != nil {
			return err
		}
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:    pdf.Filename(doc),
			ContentType: "application/pdf",
			Content:     base64.StdEncoding.EncodeToString(data),
		})
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return nil
}

// Subject is the email subject for doc.
func Subject(prefix string, doc models.OfferDocument) string {
	if prefix == "" {
		return fmt.Sprintf("Offer %s - %s", doc.OfferNumber, doc.Property.Name)
	}
	return fmt.Sprintf("%s: %s (%s)", prefix, doc.Property.Name, doc.OfferNumber)
}

// Body is the plain-text email body for doc.
func Body(doc models.OfferDocument) string {
	var b strings.Builder

	name := doc.Customer.Name
	if name == "" {
		name = "guest"
	}
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	fmt.Fprintf(&b, "thank you for your interest in %s. Please find your personalised offer below.\n\n", doc.Property.Name)
	fmt.Fprintf(&b, "Offer number: %s\n", doc.OfferNumber)
	for _, line := range doc.Lines {
		fmt.Fprintf(&b, "%s: %s\n", line.Label, line.Amount)
	}
	fmt.Fprintf(&b, "Total: %s\n\n", doc.Total)
	fmt.Fprintf(&b, "This offer is valid until %s.\n", doc.ValidUntil)
	if doc.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", doc.Notes)
	}
	b.WriteString("\nTo accept this offer or if you have any questions, simply reply to this email.\n")

	return b.String()
}
