package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/tracing"
	"booking-offer-api/internal/validation"
)

// CreateBookingRequest records an inbound inquiry. The customer is matched by
// e-mail address and created on first contact.
func (s *Service) CreateBookingRequest(ctx context.Context, req models.CreateBookingRequestRequest) (_ *models.BookingRequest, err error) {
	ctx, span := tracing.Start(ctx, "service.CreateBookingRequest", "property_id", req.PropertyID)
	defer func() { tracing.End(span, err) }()

	req.Email = strings.ToLower(validation.SanitizeString(req.Email))
	if err := validation.ValidateBookingRequest(req); err != nil {
		return nil, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	property, err := s.store.GetProperty(sctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.Active {
		return nil, &validation.ValidationError{Field: "property_id", Message: "property is not bookable"}
	}
	if req.Guests > property.Capacity {
		return nil, &validation.ValidationError{
			Field:   "guests",
			Message: fmt.Sprintf("property sleeps at most %d guests", property.Capacity),
		}
	}

	now := s.clock()

	customer, err := s.store.FindOrCreateCustomer(sctx, models.Customer{
		ID:        uuid.NewString(),
		Name:      validation.SanitizeString(req.Name),
		Email:     req.Email,
		Phone:     validation.SanitizeString(req.Phone),
		Company:   validation.SanitizeString(req.Company),
		Country:   validation.SanitizeString(req.Country),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	source := req.Source
	if source == "" {
		source = models.ChannelForm
	}

	br := models.BookingRequest{
		ID:              uuid.NewString(),
		CustomerID:      customer.ID,
		PropertyID:      property.ID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		Status:          models.BookingStatusNew,
		SpecialRequests: validation.SanitizeString(req.SpecialRequests),
		Source:          source,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.InsertBookingRequest(sctx, br); err != nil {
		return nil, err
	}

	s.logActivity(ctx, "booking_request", br.ID, "created", map[string]any{
		"customer_id": customer.ID,
		"property_id": property.ID,
		"source":      string(source),
	})

	return &br, nil
}

// GetBookingRequest returns a booking request by id.
func (s *Service) GetBookingRequest(ctx context.Context, id string) (*models.BookingRequest, error) {
	if err := validation.ValidateUUID(id, "id"); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	return s.store.GetBookingRequest(ctx, id)
}

// CreateCustomer registers a customer, returning the existing record when the
// e-mail address is already known.
func (s *Service) CreateCustomer(ctx context.Context, c models.Customer) (*models.Customer, error) {
	c.Name = validation.SanitizeString(c.Name)
	c.Email = strings.ToLower(validation.SanitizeString(c.Email))
	if err := validation.ValidateCustomer(c); err != nil {
		return nil, err
	}

	c.ID = uuid.NewString()
	c.CreatedAt = s.clock()

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	return s.store.FindOrCreateCustomer(ctx, c)
}

// CreateProperty adds a property to the catalogue.
func (s *Service) CreateProperty(ctx context.Context, p models.Property) (*models.Property, error) {
	p.Name = validation.SanitizeString(p.Name)
	p.Address = validation.SanitizeString(p.Address)
	p.City = validation.SanitizeString(p.City)
	if err := validation.ValidateProperty(p); err != nil {
		return nil, err
	}

	p.ID = uuid.NewString()
	p.CreatedAt = s.clock()
	if p.Amenities == nil {
		p.Amenities = []string{}
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.InsertProperty(sctx, p); err != nil {
		return nil, err
	}

	s.logActivity(ctx, "property", p.ID, "created", map[string]any{"name": p.Name})

	return &p, nil
}

// GetProperty returns a property by id.
func (s *Service) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	if err := validation.ValidateUUID(id, "id"); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	return s.store.GetProperty(ctx, id)
}
