package httpx

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/filekeep/pkg/cryptox"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

var ErrCSRFRejected = errors.New("httpx: csrf token missing or mismatched")

var csrfTokenLen = cryptox.EncodedTokenLen(cryptox.TokenSize256)

// CSRFGuard implements double-submit cookies: state-changing requests must
// echo the csrf_token cookie in the X-CSRF-Token header.
type CSRFGuard struct {
	Enabled  bool
	Secure   bool
	SameSite http.SameSite
}

// EnsureToken returns existing when it is well formed, otherwise a fresh
// token. created reports whether a new cookie must be sent.
func (g *CSRFGuard) EnsureToken(existing string) (token string, created bool, err error) {
	if wellFormed(existing) {
		return existing, false, nil
	}
	token, err = cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Verify checks the double-submit pair for method. Safe methods always pass.
func (g *CSRFGuard) Verify(method, cookie, header string) error {
	if !g.Enabled || IsSafeMethod(method) {
		return nil
	}
	if cookie == "" || header == "" {
		return ErrCSRFRejected
	}
	if subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
		return ErrCSRFRejected
	}
	return nil
}

// SetCookie writes the csrf cookie. It is readable from scripts so clients
// can copy it into the header.
func (g *CSRFGuard) SetCookie(w http.ResponseWriter, token string) {
	sameSite := g.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   g.Secure,
		HttpOnly: false,
		SameSite: sameSite,
	})
}

type csrfCtxKey struct{}

// Token returns the request's csrf cookie, issuing one on w if missing. A
// token already issued by IssueCookie for this request is reused.
func (g *CSRFGuard) Token(w http.ResponseWriter, r *http.Request) (string, error) {
	if token, ok := r.Context().Value(csrfCtxKey{}).(string); ok {
		return token, nil
	}
	existing := ""
	if c, err := r.Cookie(CSRFCookieName); err == nil {
		existing = c.Value
	}
	token, created, err := g.EnsureToken(existing)
	if err != nil {
		return "", err
	}
	if created {
		g.SetCookie(w, token)
	}
	return token, nil
}

// IssueCookie hands out a csrf cookie on safe requests that lack one.
func (g *CSRFGuard) IssueCookie() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.Enabled && IsSafeMethod(r.Method) {
				token, err := g.Token(w, r)
				if err != nil {
					slogx.FromContext(r.Context()).Error("failed to issue csrf token", "error", err)
				} else {
					r = r.WithContext(context.WithValue(r.Context(), csrfCtxKey{}, token))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Protect rejects unsafe requests without a matching token. With
// exemptBearer, requests carrying an Authorization header skip the check
// since browsers never attach one on their own.
func (g *CSRFGuard) Protect(exemptBearer bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptBearer && r.Header.Get("Authorization") != "" {
				next.ServeHTTP(w, r)
				return
			}

			cookie := ""
			if c, err := r.Cookie(CSRFCookieName); err == nil {
				cookie = c.Value
			}
			if err := g.Verify(r.Method, cookie, r.Header.Get(CSRFHeaderName)); err != nil {
				slogx.FromContext(r.Context()).Info("csrf check failed", "path", r.URL.Path)
				WriteError(w, http.StatusForbidden, "csrf_rejected", "missing or invalid csrf token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func wellFormed(token string) bool {
	if len(token) != csrfTokenLen {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
