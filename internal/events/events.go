package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"booking-offer-api/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	// EventOfferCreated is emitted when a new offer version is stored
	EventOfferCreated EventType = "offer.created"
	// EventOfferSent is emitted after an offer leaves draft
	EventOfferSent     EventType = "offer.sent"
	EventOfferViewed   EventType = "offer.viewed"
	EventOfferAccepted EventType = "offer.accepted"
	EventOfferDeclined EventType = "offer.declined"
	EventOfferExpired  EventType = "offer.expired"
	// EventNotificationFailed is emitted when the offer email could not be delivered
	EventNotificationFailed EventType = "offer.notification_failed"
)

// AllTypes lists every event type the engine emits.
var AllTypes = []EventType{
	EventOfferCreated,
	EventOfferSent,
	EventOfferViewed,
	EventOfferAccepted,
	EventOfferDeclined,
	EventOfferExpired,
	EventNotificationFailed,
}

// Event represents an event in the system.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// OfferData carries the offer snapshot for lifecycle events.
type OfferData struct {
	Offer   models.Offer `json:"offer"`
	ActorID string       `json:"actor_id"`
}

// NotificationFailedData describes a failed delivery attempt.
type NotificationFailedData struct {
	OfferID   string `json:"offer_id"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
	logger   *zap.Logger
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewManager creates a new event manager.
func NewManager(enabled bool, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
		logger:   logger,
		now:      time.Now,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// SubscribeAll subscribes handler to every type in AllTypes.
func (m *Manager) SubscribeAll(handler Handler) {
	for _, t := range AllTypes {
		m.Subscribe(t, handler)
	}
}

// Publish publishes an event to all subscribed handlers. Handlers run
// asynchronously and never see the caller's cancellation.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data any) {
	if m == nil {
		return
	}

	m.mu.RLock()
	handlers := m.handlers[eventType]
	enabled := m.enabled
	m.mu.RUnlock()

	if !enabled || len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: m.now().UTC(),
		Data:      data,
	}

	// The request context is usually cancelled as soon as the handler returns.
	ctx = context.WithoutCancel(ctx)

	for _, handler := range handlers {
		m.wg.Add(1)
		go func(h Handler) {
			defer m.wg.Done()
			if err := h(ctx, event); err != nil {
				m.logger.Warn("event handler failed",
					zap.String("event", string(event.Type)),
					zap.Error(err),
				)
			}
		}(handler)
	}
}

// PublishOffer publishes a lifecycle event for o.
func (m *Manager) PublishOffer(ctx context.Context, eventType EventType, o models.Offer, actorID string) {
	m.Publish(ctx, eventType, OfferData{Offer: o, ActorID: actorID})
}

// PublishNotificationFailed publishes a delivery failure.
func (m *Manager) PublishNotificationFailed(ctx context.Context, offerID, recipient string, cause error) {
	m.Publish(ctx, EventNotificationFailed, NotificationFailedData{
		OfferID:   offerID,
		Recipient: recipient,
		Reason:    cause.Error(),
	})
}

// Wait blocks until all in-flight handlers have returned.
func (m *Manager) Wait() {
	if m == nil {
		return
	}
	m.wg.Wait()
}

// Shutdown stops accepting events and waits for running handlers.
func (m *Manager) Shutdown() {
	if m == nil {
		return
	}

	m.mu.Lock()
	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
	m.mu.Unlock()

	m.wg.Wait()
}
