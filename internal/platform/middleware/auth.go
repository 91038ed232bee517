package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "attribune/pkg/domain"
	"attribune/pkg/requestcontext"
)

// TokenValidator validates a partner bearer token and returns the partner it
// authenticates.
type TokenValidator interface {
	ValidatePartnerToken(tokenString string) (id.PartnerID, error)
}

// RequirePartnerAuth guards SDK-facing endpoints. A valid bearer token puts
// the partner id into the request context; everything else is a 401.
func RequirePartnerAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			partnerID, err := validator.ValidatePartnerToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPartnerID(ctx, partnerID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
