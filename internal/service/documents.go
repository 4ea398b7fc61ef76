package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"booking-offer-api/internal/cache"
	"booking-offer-api/internal/features"
	"booking-offer-api/internal/models"
	"booking-offer-api/internal/offer"
	"booking-offer-api/internal/tracing"
)

// OfferDocument returns the document of an offer. Once an offer has been sent the
// exact document that went out is served from the cache while it is still valid.
func (s *Service) OfferDocument(ctx context.Context, id string) (_ *models.OfferDocument, err error) {
	ctx, span := tracing.Start(ctx, "service.OfferDocument", "offer_id", id)
	defer func() { tracing.End(span, err) }()

	o, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.SentAt != nil && s.documentCacheOn() {
		var doc models.OfferDocument
		err := cache.GetJSON(ctx, s.cache, cache.DocumentKey(o.ID), &doc)
		if err == nil {
			return &doc, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("document cache read failed", zap.String("offer_id", o.ID), zap.Error(err))
		}
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	doc, _, err := s.documentFor(sctx, o)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// documentFor loads the request, property and customer of o and assembles its document.
func (s *Service) documentFor(ctx context.Context, o *models.Offer) (models.OfferDocument, *models.Customer, error) {
	br, err := s.store.GetBookingRequest(ctx, o.RequestID)
	if err != nil {
		return models.OfferDocument{}, nil, err
	}

	property, err := s.store.GetProperty(ctx, br.PropertyID)
	if err != nil {
		return models.OfferDocument{}, nil, err
	}

	customer, err := s.store.GetCustomer(ctx, br.CustomerID)
	if err != nil {
		return models.OfferDocument{}, nil, err
	}

	return offer.BuildOfferDocumentIn(*o, *property, *customer, s.opts.Currency), customer, nil
}

func (s *Service) documentCacheOn() bool {
	return s.cache != nil && s.enabled(features.FeatureDocumentCache)
}

// cacheDocument keeps doc until the offer expires, capped by the configured TTL.
func (s *Service) cacheDocument(ctx context.Context, doc models.OfferDocument, ttl time.Duration) {
	if !s.documentCacheOn() {
		return
	}
	if ttl <= 0 {
		return
	}
	if ttl > s.opts.DocumentTTL {
		ttl = s.opts.DocumentTTL
	}

	ctx, cancel := s.storeCtx(context.WithoutCancel(ctx))
	defer cancel()

	if err := cache.SetJSON(ctx, s.cache, cache.DocumentKey(doc.OfferID), doc, ttl); err != nil {
		s.logger.Warn("document cache write failed", zap.String("offer_id", doc.OfferID), zap.Error(err))
	}
}
