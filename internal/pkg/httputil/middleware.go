package httputil

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/castellan-io/castellan/internal/authz"
	"github.com/castellan-io/castellan/internal/domain"
	"github.com/castellan-io/castellan/internal/pkg/metrics"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if originsSet[origin] || originsSet["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type identityContextKey struct{}

// TokenValidator verifies an access token and returns the claimed identity.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (userID string, role domain.Role, err error)
}

// AuthMiddleware is the authentication gate. It requires an Authorization
// header of the form "Bearer <token>", verifies the token, and attaches the
// resulting identity to the request context. No store lookup happens here:
// the identity is exactly what the verified token claims. The gate is
// idempotent; re-running it on the same request yields the same identity.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				metrics.AuthDecisionsTotal.WithLabelValues("authenticate", "missing_credentials").Inc()
				Error(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			userID, role, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				metrics.AuthDecisionsTotal.WithLabelValues("authenticate", "invalid_credentials").Inc()
				Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			metrics.AuthDecisionsTotal.WithLabelValues("authenticate", "ok").Inc()

			identity := &authz.Identity{SubjectID: userID, Role: role}
			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization header. Any shape
// other than "Bearer <token>" is treated as missing credentials.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// IdentityFromContext extracts the authenticated identity from context.
// Returns nil when the request did not pass the authentication gate.
func IdentityFromContext(ctx context.Context) *authz.Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*authz.Identity)
	return identity
}

// GetUserID extracts the authenticated subject ID from context.
func GetUserID(ctx context.Context) string {
	if identity := IdentityFromContext(ctx); identity != nil {
		return identity.SubjectID
	}
	return ""
}

// Gate wires the authorization gate into HTTP middleware. Decisions are
// delegated to the registry; this layer only maps outcomes to status codes.
type Gate struct {
	Registry *authz.Registry
}

// RequireRole allows the request iff the identity's role is one of the
// allowed roles.
func (g Gate) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return g.require(authz.RoleIn(roles...))
}

// RequireCapabilities allows the request iff every listed capability is
// granted to the identity's role.
func (g Gate) RequireCapabilities(caps ...domain.Capability) func(http.Handler) http.Handler {
	return g.require(authz.HasCapabilities(caps...))
}

func (g Gate) require(requirement authz.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())

			switch err := g.Registry.Authorize(identity, requirement); {
			case errors.Is(err, authz.ErrUnauthenticated):
				metrics.AuthDecisionsTotal.WithLabelValues("authorize", "unauthenticated").Inc()
				Error(w, http.StatusUnauthorized, "authentication required")
			case errors.Is(err, authz.ErrForbidden):
				metrics.AuthDecisionsTotal.WithLabelValues("authorize", "forbidden").Inc()
				Error(w, http.StatusForbidden, "insufficient permissions")
			case err != nil:
				Error(w, http.StatusInternalServerError, "internal error")
			default:
				metrics.AuthDecisionsTotal.WithLabelValues("authorize", "ok").Inc()
				next.ServeHTTP(w, r)
			}
		})
	}
}
