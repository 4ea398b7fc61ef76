package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"booking-offer-api/internal/events"
	"booking-offer-api/internal/models"
	"booking-offer-api/internal/offer"
	"booking-offer-api/internal/tracing"
)

// SendOffer moves a draft to sent, syncs the booking request to offer_sent and
// dispatches the offer document. The document is assembled before the status
// changes, so a send that fails leaves the offer a draft. Anything that fails
// after the offer is committed as sent is returned as a warning instead.
func (s *Service) SendOffer(ctx context.Context, id string) (_ *models.SendOfferResponse, err error) {
	ctx, span := tracing.Start(ctx, "service.SendOffer", "offer_id", id)
	defer func() { tracing.End(span, err) }()

	o, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if o.Status == models.OfferStatusDraft && s.isStale(o, now) {
		expired, err := s.expire(ctx, o, now)
		if err != nil {
			return nil, err
		}
		return nil, &offer.InvalidStateError{Operation: "send", Current: expired.Status, Target: models.OfferStatusSent}
	}

	if err := offer.Transition("send", o.Status, models.OfferStatusSent); err != nil {
		return nil, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	doc, customer, err := s.documentFor(sctx, o)
	if err != nil {
		return nil, err
	}

	sent, err := s.transition(ctx, o, "send", models.OfferStatusSent, models.StatusChange{At: now, SentAt: &now})
	if err != nil {
		return nil, err
	}

	resp := &models.SendOfferResponse{Offer: *sent}

	if err := s.store.UpdateBookingRequestStatus(sctx, sent.RequestID, models.BookingStatusOfferSent); err != nil {
		s.logger.Error("booking request status sync failed",
			zap.String("offer_id", sent.ID),
			zap.String("request_id", sent.RequestID),
			zap.Error(err),
		)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("offer %s was sent but booking request %s could not be marked offer_sent: %v", sent.OfferNumber, sent.RequestID, err))
	}

	s.logActivity(ctx, "offer", sent.ID, "sent", map[string]any{
		"offer_number": sent.OfferNumber,
		"sent_to":      customer.Email,
	})
	s.events.PublishOffer(ctx, events.EventOfferSent, *sent, ActorFromContext(ctx))

	if err := s.notify(ctx, doc, customer.Email); err != nil {
		s.logger.Error("offer notification failed",
			zap.String("offer_id", sent.ID),
			zap.String("recipient", customer.Email),
			zap.Error(err),
		)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("offer %s was sent but the notification to %s failed: %v", sent.OfferNumber, customer.Email, err))
		s.logActivity(ctx, "offer", sent.ID, "notification_failed", map[string]any{
			"sent_to": customer.Email,
			"reason":  err.Error(),
		})
		s.events.PublishNotificationFailed(ctx, sent.ID, customer.Email, err)
	}

	s.cacheDocument(ctx, doc, sent.ExpiresAt.Sub(now))

	return resp, nil
}

func (s *Service) notify(ctx context.Context, doc models.OfferDocument, recipient string) error {
	if s.notifier == nil {
		return errors.New("no notification sender configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.NotificationTimeout)
	defer cancel()

	return s.notifier.Send(ctx, doc, recipient)
}

// MarkViewed records that the guest opened the offer. It is a no-op when the offer
// is already viewed or terminal, and fails for drafts.
func (s *Service) MarkViewed(ctx context.Context, id string) (_ *models.Offer, err error) {
	ctx, span := tracing.Start(ctx, "service.MarkViewed", "offer_id", id)
	defer func() { tracing.End(span, err) }()

	o, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == models.OfferStatusViewed || o.Status.Terminal() {
		return o, nil
	}

	now := s.clock()
	viewed, err := s.transition(ctx, o, "view", models.OfferStatusViewed, models.StatusChange{At: now, ViewedAt: &now})
	if err != nil {
		var stateErr *offer.InvalidStateError
		if errors.As(err, &stateErr) && stateErr.Current != models.OfferStatusDraft {
			// Someone else moved it on first.
			return s.GetOffer(ctx, id)
		}
		return nil, err
	}

	s.logActivity(ctx, "offer", viewed.ID, "viewed", map[string]any{"offer_number": viewed.OfferNumber})
	s.events.PublishOffer(ctx, events.EventOfferViewed, *viewed, ActorFromContext(ctx))

	return viewed, nil
}

// AcceptOffer records the guest's acceptance and moves the booking request to accepted.
func (s *Service) AcceptOffer(ctx context.Context, id string) (*models.Offer, error) {
	return s.respond(ctx, id, "accept", models.OfferStatusAccepted, models.BookingStatusAccepted, events.EventOfferAccepted)
}

// DeclineOffer records the guest's refusal and reopens the booking request for negotiation.
func (s *Service) DeclineOffer(ctx context.Context, id string) (*models.Offer, error) {
	return s.respond(ctx, id, "decline", models.OfferStatusDeclined, models.BookingStatusNegotiation, events.EventOfferDeclined)
}

func (s *Service) respond(ctx context.Context, id, op string, to models.OfferStatus, requestStatus models.BookingStatus, eventType events.EventType) (_ *models.Offer, err error) {
	ctx, span := tracing.Start(ctx, "service."+op+"Offer", "offer_id", id)
	defer func() { tracing.End(span, err) }()

	o, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if s.isStale(o, now) {
		expired, err := s.expire(ctx, o, now)
		if err != nil {
			return nil, err
		}
		return nil, &offer.InvalidStateError{Operation: op, Current: expired.Status, Target: to}
	}

	updated, err := s.transition(ctx, o, op, to, models.StatusChange{At: now, RespondedAt: &now})
	if err != nil {
		return nil, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.UpdateBookingRequestStatus(sctx, updated.RequestID, requestStatus); err != nil {
		return nil, fmt.Errorf("sync booking request status: %w", err)
	}

	s.logActivity(ctx, "offer", updated.ID, string(to), map[string]any{"offer_number": updated.OfferNumber})
	s.events.PublishOffer(ctx, eventType, *updated, ActorFromContext(ctx))

	return updated, nil
}

// MarkExpired expires a single offer once its expiry has passed. Offers that are
// terminal or not yet stale are returned unchanged.
func (s *Service) MarkExpired(ctx context.Context, id string) (_ *models.Offer, err error) {
	ctx, span := tracing.Start(ctx, "service.MarkExpired", "offer_id", id)
	defer func() { tracing.End(span, err) }()

	o, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if !s.isStale(o, now) {
		return o, nil
	}

	return s.expire(ctx, o, now)
}

// ExpireStaleOffers expires every draft, sent or viewed offer whose expiry is
// before now and returns how many were expired. Offers changed concurrently are
// skipped.
func (s *Service) ExpireStaleOffers(ctx context.Context, now time.Time) (_ int, err error) {
	ctx, span := tracing.Start(ctx, "service.ExpireStaleOffers")
	defer func() { tracing.End(span, err) }()

	now = now.UTC()
	expired := 0
	seen := make(map[string]bool)

	for {
		sctx, cancel := s.storeCtx(ctx)
		batch, err := s.store.ListExpirableOffers(sctx, now, s.opts.SweepBatchSize)
		cancel()
		if err != nil {
			return expired, err
		}

		progressed := false
		for i := range batch {
			o := &batch[i]
			if seen[o.ID] {
				continue
			}
			seen[o.ID] = true
			progressed = true

			if _, err := s.expire(ctx, o, now); err != nil {
				var stateErr *offer.InvalidStateError
				if errors.As(err, &stateErr) {
					continue
				}
				return expired, err
			}
			expired++
		}

		if len(batch) < s.opts.SweepBatchSize || !progressed {
			break
		}
		if err := ctx.Err(); err != nil {
			return expired, err
		}
	}

	if expired > 0 {
		s.logger.Info("expired stale offers", zap.Int("count", expired))
	}

	return expired, nil
}

// expire moves o to expired. When o is the latest offer of a request still
// waiting on it, the request expires too.
func (s *Service) expire(ctx context.Context, o *models.Offer, now time.Time) (*models.Offer, error) {
	expired, err := s.transition(ctx, o, "expire", models.OfferStatusExpired, models.StatusChange{At: now})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, "offer", expired.ID, "expired", map[string]any{
		"offer_number": expired.OfferNumber,
		"expires_at":   expired.ExpiresAt,
		"previous":     string(o.Status),
	})
	s.events.PublishOffer(ctx, events.EventOfferExpired, *expired, ActorFromContext(ctx))

	if err := s.expireRequestIfLatest(ctx, expired); err != nil {
		s.logger.Warn("failed to expire booking request",
			zap.String("request_id", expired.RequestID),
			zap.Error(err),
		)
	}

	return expired, nil
}

func (s *Service) expireRequestIfLatest(ctx context.Context, o *models.Offer) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	br, err := s.store.GetBookingRequest(ctx, o.RequestID)
	if err != nil {
		return err
	}
	if br.Status != models.BookingStatusOfferSent {
		return nil
	}

	count, err := s.store.CountOffers(ctx, o.RequestID)
	if err != nil {
		return err
	}
	if count != o.Version {
		return nil
	}

	return s.store.UpdateBookingRequestStatus(ctx, br.ID, models.BookingStatusExpired)
}

// transition applies a legal status change with compare-and-set semantics. A lost
// race is reported as an InvalidStateError carrying the status that won.
func (s *Service) transition(ctx context.Context, o *models.Offer, op string, to models.OfferStatus, change models.StatusChange) (*models.Offer, error) {
	if err := offer.Transition(op, o.Status, to); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	updated, err := s.store.UpdateOfferStatus(ctx, o.ID, o.Status, to, change)
	if errors.Is(err, offer.ErrStatusChanged) {
		current, gerr := s.store.GetOffer(ctx, o.ID)
		if gerr != nil {
			return nil, gerr
		}
		return nil, &offer.InvalidStateError{Operation: op, Current: current.Status, Target: to}
	}
	if err != nil {
		return nil, err
	}

	return updated, nil
}
