package middleware

import (
	"context"
	"net/http"

	"github.com/anujaroke/Task-Vault/internal/auth"
)

type key string

const identityKey key = "identity"

// TokenCookieName is the cookie the session token travels in.
const TokenCookieName = "token"

// RequireAuth is the authorization boundary for every task route. It reads the
// token cookie, validates it with codec, and attaches the decoded identity to
// the request context. Missing or invalid tokens redirect to /login; the
// downstream handler is never invoked. Ownership of individual rows is still
// re-checked at the repo layer (id + user_id), since a valid token only proves
// who the caller is.
func RequireAuth(codec *auth.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookieName)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			ident, err := codec.Validate(cookie.Value)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated identity set by RequireAuth.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(auth.Identity)
	return ident, ok
}

// WithIdentity returns a context carrying ident. Used by tests to exercise
// handlers without running the full middleware chain.
func WithIdentity(ctx context.Context, ident auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}
