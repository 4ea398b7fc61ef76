package service

import (
	"context"

	"go.uber.org/zap"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/validation"
)

// Email provider event types.
const (
	EmailDelivered  = "email.delivered"
	EmailOpened     = "email.opened"
	EmailClicked    = "email.clicked"
	EmailBounced    = "email.bounced"
	EmailComplained = "email.complained"
)

// HandleEmailEvent applies an email-provider event. Opening an offer email marks
// the offer viewed; the other tracked events only land in the activity log.
// Unknown types are ignored.
func (s *Service) HandleEmailEvent(ctx context.Context, evt models.EmailEvent) error {
	data := evt.Data

	switch evt.Type {
	case EmailOpened:
		offerID := data.Tags["offer_id"]
		if offerID == "" {
			return nil
		}
		if err := validation.ValidateUUID(offerID, "data.tags.offer_id"); err != nil {
			return err
		}
		_, err := s.MarkViewed(ctx, offerID)
		return err

	case EmailDelivered:
		s.logActivity(ctx, "email", data.EmailID, "delivered", map[string]any{
			"to":      data.To,
			"subject": data.Subject,
		})

	case EmailClicked:
		s.logActivity(ctx, "email", data.EmailID, "link_clicked", map[string]any{
			"link": data.Link,
		})

	case EmailBounced:
		details := map[string]any{"to": data.To}
		if data.Bounce != nil {
			details["reason"] = data.Bounce.Message
		}
		s.logActivity(ctx, "email", data.EmailID, "bounced", details)

	case EmailComplained:
		s.logActivity(ctx, "email", data.EmailID, "spam_complaint", map[string]any{
			"to": data.To,
		})

	default:
		s.logger.Debug("ignoring email event", zap.String("type", evt.Type))
	}

	return nil
}
