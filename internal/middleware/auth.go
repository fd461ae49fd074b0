package middleware

import (
	"context"
	"net/http"
	"strings"

	"gm-economy-api/internal/model"
	"gm-economy-api/internal/repository"
	"gm-economy-api/internal/service"
	"gm-economy-api/pkg/apierror"
)

// SessionDataKey is the key for storing session data in request context.
const SessionDataKey contextKey = "session_data"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// SessionService validates X-Token session tokens. Optional.
	SessionService *service.SessionService

	// HostKeys validates raw X-Host-Key headers. This is the privileged
	// caller check: everything behind this middleware is host tooling.
	HostKeys repository.HostKeyRepository
}

// NewAuthMiddleware creates an authentication middleware with injected
// dependencies.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health endpoints and token issuance stay open.
			if r.URL.Path == "/api/v1/health" || r.URL.Path == "/api/v1/ready" {
				next.ServeHTTP(w, r)
				return
			}
			if r.URL.Path == "/api/v1/auth/token" && r.Method == http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			// Try X-Token first (session tokens).
			token := r.Header.Get("X-Token")
			if token != "" && cfg.SessionService != nil {
				sessionData, err := cfg.SessionService.ValidateToken(r.Context(), token)
				if err != nil {
					writeError(w, apierror.Unauthorized("Invalid or expired token"))
					return
				}

				ctx := context.WithValue(r.Context(), SessionDataKey, sessionData)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Fall back to a raw host key.
			hostKey := r.Header.Get("X-Host-Key")
			if hostKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					hostKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if hostKey == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token or X-Host-Key header."))
				return
			}

			if cfg.HostKeys == nil {
				writeError(w, apierror.Unauthorized("Host key authentication is not configured"))
				return
			}

			if _, err := cfg.HostKeys.ValidateHostKey(r.Context(), hostKey); err != nil {
				writeError(w, apierror.Unauthorized("Invalid host key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// GetSessionDataFromContext retrieves session data from request context.
func GetSessionDataFromContext(ctx context.Context) *model.SessionData {
	if data, ok := ctx.Value(SessionDataKey).(*model.SessionData); ok {
		return data
	}
	return nil
}
