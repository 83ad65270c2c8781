package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/filekeep/pkg/slogx"
)

// Authenticator turns a raw session token into a request context carrying
// the caller (see WithPrincipal). Any error is reported to the client as a
// plain 401 without detail.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (context.Context, error)
}

// AuthnMiddleware accepts "Authorization: Bearer <token>" and falls back to
// the session cookie named cookieName.
func AuthnMiddleware(a Authenticator, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, source := SessionToken(r, cookieName)
			if raw == "" {
				writeBearerError(w, "missing session token")
				return
			}

			authed, err := a.Authenticate(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Info("session rejected", "source", source, "error", err)
				writeBearerError(w, "not authenticated")
				return
			}

			authed = context.WithValue(authed, CtxKeyAuthSource, source)
			if subject, ok := SubjectFromContext(authed); ok {
				authed = slogx.WithUserID(authed, subject)
			}
			next.ServeHTTP(w, r.WithContext(authed))
		})
	}
}

// SessionToken extracts the token and where it came from. The header wins
// over the cookie.
func SessionToken(r *http.Request, cookieName string) (string, string) {
	if authz := r.Header.Get("Authorization"); authz != "" {
		scheme, token, ok := strings.Cut(authz, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token), AuthSourceBearer
		}
		return "", ""
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value, AuthSourceCookie
		}
	}
	return "", ""
}

// RFC 6750 style challenge with the JSON error envelope as body.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "not_authenticated", "authentication required")
}
