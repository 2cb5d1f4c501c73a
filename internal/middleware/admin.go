package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"barber-booking/internal/auth"
	"barber-booking/internal/models"
	"barber-booking/internal/transport"
)

const AccessCookie = "bb_access"

type identityKey struct{}

// APIKeyIdentity is attributed to actions performed with the static admin key.
var APIKeyIdentity = auth.Identity{ID: "api-key", Username: "api-key", Role: models.RoleAdmin}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

// StaffAuth admits requests carrying the admin key header or a valid access
// token cookie. Admin-only routes additionally wrap RequireRole.
func StaffAuth(adminKey string, manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" && manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
				return
			}

			if key := r.Header.Get("X-Admin-Key"); adminKey != "" && key != "" &&
				subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) == 1 {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), APIKeyIdentity)))
				return
			}

			if manager != nil {
				cookie, err := r.Cookie(AccessCookie)
				if err == nil && cookie.Value != "" {
					claims, err := manager.ParseKind(cookie.Value, auth.TokenAccess)
					if err == nil && (claims.Role == models.RoleAdmin || claims.Role == models.RoleStaff) {
						next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
						return
					}
				}
			}

			transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		})
	}
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if id.Role != role {
				transport.WriteError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
