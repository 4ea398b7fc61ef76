package middleware

import (
	"net/http"

	"booking-offer-api/internal/service"
	"booking-offer-api/internal/validation"
)

// ActorHeader identifies the admin or integration making a request.
const ActorHeader = "X-Actor-ID"

// Actor copies the X-Actor-ID header into the request context for the audit log.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := validation.SanitizeString(r.Header.Get(ActorHeader)); id != "" {
			if len(id) > 128 {
				id = id[:128]
			}
			r = r.WithContext(service.WithActor(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
