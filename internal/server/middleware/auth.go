package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"taskvault/backend/internal/security"
	"taskvault/backend/internal/server/httperr"
	"taskvault/backend/internal/user/domain"
)

const bearerPrefix = "bearer "

// UserGetter looks up a user by id. The auth middleware re-reads the live row
// on every request so deactivation and role changes take effect before the
// token expires.
type UserGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Authenticate returns middleware that resolves the Authorization bearer
// token to an acting identity and stores it in the request context. The
// three token verification failures are collapsed into one 401 response so
// validation internals do not leak to callers.
func Authenticate(tokens *security.TokenProvider, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				httperr.Write(w, httperr.Unauthorized("Authorization header is missing"))
				return
			}
			claims, err := tokens.Verify(token)
			if err != nil {
				httperr.Write(w, httperr.Unauthorized("Could not validate credentials"))
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				httperr.Write(w, httperr.Unauthorized("Invalid token"))
				return
			}
			u, err := users.GetByID(r.Context(), userID)
			if err != nil {
				httperr.Write(w, httperr.Internal("An unexpected error occurred"))
				return
			}
			if u == nil {
				httperr.Write(w, httperr.NotFound("User not found"))
				return
			}
			if !u.IsActive {
				httperr.Write(w, httperr.BadRequest("Inactive user"))
				return
			}

			ident := Identity{ID: u.ID, Username: u.Username, Role: u.Role, IsActive: u.IsActive}
			ctx := WithIdentity(r.Context(), ident)

			// Informational propagation for observability, not an
			// authorization decision.
			span := trace.SpanFromContext(ctx)
			span.SetAttributes(
				attribute.Int64("user.id", ident.ID),
				attribute.String("user.name", ident.Username),
				attribute.String("user.role", string(ident.Role)),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns middleware that records the request's client address in
// the context for rate limiting and audit logging.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), host)))
	})
}

// extractBearer returns the bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
