package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"booking-offer-api/internal/cache"
	"booking-offer-api/internal/events"
	"booking-offer-api/internal/features"
	"booking-offer-api/internal/models"
	"booking-offer-api/internal/offer"
)

// BookingRequestStore reads booking requests and keeps their status in sync.
type BookingRequestStore interface {
	GetBookingRequest(ctx context.Context, id string) (*models.BookingRequest, error)
	InsertBookingRequest(ctx context.Context, r models.BookingRequest) error
	UpdateBookingRequestStatus(ctx context.Context, id string, status models.BookingStatus) error
	CountOffers(ctx context.Context, requestID string) (int, error)
}

// OfferStore persists offers. InsertOffer reports uniqueness clashes as
// offer.ErrDuplicateOfferNumber or offer.ErrDuplicateVersion, and
// UpdateOfferStatus reports a lost compare-and-set as offer.ErrStatusChanged.
type OfferStore interface {
	InsertOffer(ctx context.Context, o models.Offer) error
	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	UpdateOfferStatus(ctx context.Context, id string, from, to models.OfferStatus, change models.StatusChange) (*models.Offer, error)
	ListOffersByRequest(ctx context.Context, requestID string) ([]models.Offer, error)
	ListExpirableOffers(ctx context.Context, now time.Time, limit int) ([]models.Offer, error)
}

// CatalogStore holds the customers and properties offers refer to.
type CatalogStore interface {
	InsertProperty(ctx context.Context, p models.Property) error
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	FindOrCreateCustomer(ctx context.Context, c models.Customer) (*models.Customer, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
}

// Store is everything the engine persists. *database.DB satisfies it.
type Store interface {
	BookingRequestStore
	OfferStore
	CatalogStore
}

// NotificationSender delivers an offer document to a guest.
type NotificationSender interface {
	Send(ctx context.Context, doc models.OfferDocument, recipient string) error
}

// ActivityLogger appends audit records. Failures never fail the calling operation.
type ActivityLogger interface {
	AppendActivity(ctx context.Context, entry models.ActivityLogEntry) error
}

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	DefaultValidityDays int
	Currency            string
	NumberAttempts      int
	VersionAttempts     int
	SweepBatchSize      int
	DocumentTTL         time.Duration
	StoreTimeout        time.Duration
	NotificationTimeout time.Duration
	ActivityTimeout     time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultValidityDays <= 0 {
		o.DefaultValidityDays = 7
	}
	if o.Currency == "" {
		o.Currency = offer.DefaultCurrency
	}
	if o.NumberAttempts <= 0 {
		o.NumberAttempts = 5
	}
	if o.VersionAttempts <= 0 {
		o.VersionAttempts = 5
	}
	if o.SweepBatchSize <= 0 {
		o.SweepBatchSize = 100
	}
	if o.DocumentTTL <= 0 {
		o.DocumentTTL = 7 * 24 * time.Hour
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
	if o.NotificationTimeout <= 0 {
		o.NotificationTimeout = 10 * time.Second
	}
	if o.ActivityTimeout <= 0 {
		o.ActivityTimeout = 2 * time.Second
	}
	return o
}

// Deps are the collaborators of the engine. Store, Notifier and Activity are
// required; the rest are optional.
type Deps struct {
	Store    Store
	Notifier NotificationSender
	Activity ActivityLogger
	Events   *events.Manager
	Cache    cache.Cache
	Features *features.Manager
	Numbers  offer.NumberGenerator
	Logger   *zap.Logger
	Clock    func() time.Time
}

// Service is the offer engine.
type Service struct {
	store    Store
	notifier NotificationSender
	activity ActivityLogger
	events   *events.Manager
	cache    cache.Cache
	features *features.Manager
	numbers  offer.NumberGenerator
	logger   *zap.Logger
	now      func() time.Time
	opts     Options
	locks    *keyedMutex
}

// NewService creates a new service instance.
func NewService(deps Deps, opts Options) *Service {
	s := &Service{
		store:    deps.Store,
		notifier: deps.Notifier,
		activity: deps.Activity,
		events:   deps.Events,
		cache:    deps.Cache,
		features: deps.Features,
		numbers:  deps.Numbers,
		logger:   deps.Logger,
		now:      deps.Clock,
		opts:     opts.withDefaults(),
		locks:    newKeyedMutex(),
	}

	if s.numbers == nil {
		s.numbers = offer.RandomNumbers{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.StoreTimeout)
}

func (s *Service) enabled(flag string) bool {
	if s.features == nil {
		return true
	}
	return s.features.IsEnabled(flag)
}

// logActivity appends an audit record. Errors are reported on the logger only.
func (s *Service) logActivity(ctx context.Context, entityType, entityID, action string, details map[string]any) {
	if s.activity == nil {
		return
	}

	entry := models.ActivityLogEntry{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    ActorFromContext(ctx),
		Details:    details,
		CreatedAt:  s.clock(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ActivityTimeout)
	defer cancel()

	if err := s.activity.AppendActivity(ctx, entry); err != nil {
		s.logger.Error("failed to append activity",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
