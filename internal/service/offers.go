package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"booking-offer-api/internal/events"
	"booking-offer-api/internal/models"
	"booking-offer-api/internal/offer"
	"booking-offer-api/internal/tracing"
	"booking-offer-api/internal/validation"
)

// CreateOffer prices a booking request and stores the result as the next draft
// version. The Nth offer for a request always carries version N.
func (s *Service) CreateOffer(ctx context.Context, req models.CreateOfferRequest) (_ *models.Offer, err error) {
	ctx, span := tracing.Start(ctx, "service.CreateOffer", "request_id", req.RequestID)
	defer func() { tracing.End(span, err) }()

	if err := validation.ValidateCreateOffer(req); err != nil {
		return nil, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	br, err := s.store.GetBookingRequest(sctx, req.RequestID)
	if err != nil {
		return nil, err
	}

	cleaningFee := int64(0)
	if req.CleaningFee != nil {
		cleaningFee = *req.CleaningFee
	} else {
		property, err := s.store.GetProperty(sctx, br.PropertyID)
		if err != nil {
			return nil, err
		}
		cleaningFee = property.CleaningFee
	}

	breakdown, err := offer.BuildBreakdown(br.CheckIn.Time, br.CheckOut.Time, req.PricePerNight, cleaningFee, req.AdditionalFees)
	if err != nil {
		return nil, err
	}

	validityDays := s.opts.DefaultValidityDays
	if req.ValidityDays != nil {
		validityDays = *req.ValidityDays
	}

	now := s.clock()
	o := models.Offer{
		RequestID:  br.ID,
		Breakdown:  breakdown,
		TotalPrice: breakdown.Total,
		ExpiresAt:  now.AddDate(0, 0, validityDays),
		Status:     models.OfferStatusDraft,
		Notes:      validation.SanitizeString(req.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.insertNextVersion(sctx, &o); err != nil {
		return nil, err
	}

	if next, ok := offer.RequestStatusAfterCreate(br.Status); ok {
		if err := s.store.UpdateBookingRequestStatus(sctx, br.ID, next); err != nil {
			return nil, fmt.Errorf("sync booking request status: %w", err)
		}
	}

	s.logActivity(ctx, "offer", o.ID, "created", map[string]any{
		"offer_number": o.OfferNumber,
		"request_id":   o.RequestID,
		"version":      o.Version,
		"total":        o.TotalPrice,
	})
	s.events.PublishOffer(ctx, events.EventOfferCreated, o, ActorFromContext(ctx))

	s.logger.Info("offer created",
		zap.String("offer_id", o.ID),
		zap.String("offer_number", o.OfferNumber),
		zap.Int("version", o.Version),
	)

	return &o, nil
}

// insertNextVersion assigns version and offer number to o and inserts it.
// Version assignment is serialised per request in-process; the store's unique
// (request_id, version) index catches writers in other processes, in which case
// the count is re-read and the insert retried.
func (s *Service) insertNextVersion(ctx context.Context, o *models.Offer) error {
	unlock := s.locks.Lock(o.RequestID)
	defer unlock()

	numberAttempts := 0
	for versionAttempt := 1; ; versionAttempt++ {
		count, err := s.store.CountOffers(ctx, o.RequestID)
		if err != nil {
			return err
		}

		o.ID = uuid.NewString()
		o.Version = count + 1

		for {
			numberAttempts++
			if o.OfferNumber, err = s.numbers.Next(o.CreatedAt); err != nil {
				return fmt.Errorf("generate offer number: %w", err)
			}

			err = s.store.InsertOffer(ctx, *o)
			if err == nil {
				return nil
			}
			if !errors.Is(err, offer.ErrDuplicateOfferNumber) {
				break
			}

			s.logger.Warn("offer number collision, regenerating",
				zap.String("offer_number", o.OfferNumber),
				zap.Int("attempt", numberAttempts),
			)
			if numberAttempts >= s.opts.NumberAttempts {
				return &offer.ConflictError{Field: "offer_number", Attempts: numberAttempts}
			}
		}

		if !errors.Is(err, offer.ErrDuplicateVersion) {
			return err
		}

		s.logger.Warn("offer version taken, recounting",
			zap.String("request_id", o.RequestID),
			zap.Int("version", o.Version),
			zap.Int("attempt", versionAttempt),
		)
		if versionAttempt >= s.opts.VersionAttempts {
			return &offer.ConflictError{Field: "version", Attempts: versionAttempt}
		}
	}
}

// GetOffer returns an offer by id.
func (s *Service) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	if err := validation.ValidateUUID(id, "id"); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	return s.store.GetOffer(ctx, id)
}

// ListOffers returns the revision history of a booking request, newest first.
func (s *Service) ListOffers(ctx context.Context, requestID string) ([]models.Offer, error) {
	if err := validation.ValidateUUID(requestID, "request_id"); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.store.GetBookingRequest(ctx, requestID); err != nil {
		return nil, err
	}

	return s.store.ListOffersByRequest(ctx, requestID)
}

func (s *Service) isStale(o *models.Offer, now time.Time) bool {
	return offer.Expirable(o.Status) && o.ExpiresAt.Before(now)
}
