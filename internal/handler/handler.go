package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/offer"
	"booking-offer-api/internal/service"
	"booking-offer-api/internal/validation"
)

// DocumentRenderer renders an offer document as PDF.
type DocumentRenderer interface {
	Render(doc models.OfferDocument) ([]byte, error)
}

// ActivityReader reads the audit trail of one entity.
type ActivityReader interface {
	ListActivity(ctx context.Context, entityType, entityID string) ([]models.ActivityLogEntry, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	service     *service.Service
	renderer    DocumentRenderer
	activity    ActivityReader
	store       Pinger
	logger      *zap.Logger
	maxBodySize int64
}

// Options holds options for creating a handler.
type Options struct {
	MaxBodySize int64
	Renderer    DocumentRenderer
	Activity    ActivityReader
	Store       Pinger // checked by /health when set
	Logger      *zap.Logger
}

// DefaultOptions returns default handler options.
func DefaultOptions() Options {
	return Options{
		MaxBodySize: 1 << 20, // 1MB default
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service, opts Options) *Handler {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultOptions().MaxBodySize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		service:     svc,
		renderer:    opts.Renderer,
		activity:    opts.Activity,
		store:       opts.Store,
		logger:      opts.Logger,
		maxBodySize: opts.MaxBodySize,
	}
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/booking-requests", func(r chi.Router) {
		r.Post("/", h.CreateBookingRequest)
		r.Get("/{id}", h.GetBookingRequest)
		r.Get("/{id}/offers", h.ListRequestOffers)
	})

	r.Post("/customers", h.CreateCustomer)

	r.Route("/properties", func(r chi.Router) {
		r.Post("/", h.CreateProperty)
		r.Get("/{id}", h.GetProperty)
	})

	r.Route("/offers", func(r chi.Router) {
		r.Post("/", h.CreateOffer)
		r.Post("/expire-stale", h.ExpireStaleOffers)
		r.Get("/{id}", h.GetOffer)
		r.Post("/{id}/send", h.SendOffer)
		r.Post("/{id}/view", h.MarkViewed)
		r.Post("/{id}/accept", h.AcceptOffer)
		r.Post("/{id}/decline", h.DeclineOffer)
		r.Post("/{id}/expire", h.MarkExpired)
		r.Get("/{id}/document", h.GetOfferDocument)
		r.Get("/{id}/pdf", h.GetOfferPDF)
		r.Get("/{id}/activity", h.GetOfferActivity)
	})

	r.Post("/webhooks/email", h.EmailWebhook)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			h.logger.Error("health check failed", zap.Error(err))
			h.respondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// decode reads a size-limited JSON body into dst. It writes the error response
// itself and reports whether decoding succeeded.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			h.respondError(w, http.StatusBadRequest, "request body is required")
		case errors.As(err, &maxErr):
			h.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		default:
			h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		}
		return false
	}

	return true
}

func urlID(r *http.Request) string {
	return validation.SanitizeString(chi.URLParam(r, "id"))
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}

// respondServiceError maps engine errors to HTTP status codes.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *validation.ValidationError
		notFoundErr   *offer.NotFoundError
		stateErr      *offer.InvalidStateError
		conflictErr   *offer.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		h.respondJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error: validationErr.Error(),
			Field: validationErr.Field,
		})
	case errors.As(err, &notFoundErr):
		h.respondError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &stateErr):
		h.respondJSON(w, http.StatusConflict, models.ErrorResponse{
			Error:         stateErr.Error(),
			CurrentStatus: string(stateErr.Current),
			TargetStatus:  string(stateErr.Target),
		})
	case errors.As(err, &conflictErr):
		h.respondJSON(w, http.StatusConflict, models.ErrorResponse{
			Error: conflictErr.Error(),
			Field: conflictErr.Field,
		})
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Error("request timed out", zap.String("path", r.URL.Path), zap.Error(err))
		h.respondError(w, http.StatusGatewayTimeout, "operation timed out")
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
