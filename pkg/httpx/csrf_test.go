package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/filekeep/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestCSRFEnsureToken(t *testing.T) {
	g := &httpx.CSRFGuard{Enabled: true}

	fresh, created, err := g.EnsureToken("")
	require.NoError(t, err)
	require.True(t, created)
	require.Len(t, fresh, 43)

	again, created, err := g.EnsureToken(fresh)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, fresh, again)

	for _, bad := range []string{"short", strings.Repeat("!", 43), fresh + "x"} {
		replaced, created, err := g.EnsureToken(bad)
		require.NoError(t, err)
		require.True(t, created, "input %q", bad)
		require.NotEqual(t, bad, replaced)
	}
}

func TestCSRFVerify(t *testing.T) {
	g := &httpx.CSRFGuard{Enabled: true}
	token, _, err := g.EnsureToken("")
	require.NoError(t, err)

	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		require.NoError(t, g.Verify(m, "", ""), m)
	}

	require.NoError(t, g.Verify(http.MethodPost, token, token))
	require.ErrorIs(t, g.Verify(http.MethodPost, token, ""), httpx.ErrCSRFRejected)
	require.ErrorIs(t, g.Verify(http.MethodPost, "", token), httpx.ErrCSRFRejected)
	other, _, err := g.EnsureToken("")
	require.NoError(t, err)
	require.ErrorIs(t, g.Verify(http.MethodDelete, token, other), httpx.ErrCSRFRejected)

	disabled := &httpx.CSRFGuard{}
	require.NoError(t, disabled.Verify(http.MethodPost, "", ""))
}

func TestCSRFMiddleware(t *testing.T) {
	g := &httpx.CSRFGuard{Enabled: true}
	h := httpx.Chain(okHandler(), g.IssueCookie(), g.Protect(true))

	// Safe request issues a cookie
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, httpx.CSRFCookieName, cookies[0].Name)
	require.False(t, cookies[0].HttpOnly)
	token := cookies[0].Value

	t.Run("post without header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(&http.Cookie{Name: httpx.CSRFCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "csrf_rejected")
	})

	t.Run("post with matching header allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(&http.Cookie{Name: httpx.CSRFCookieName, Value: token})
		req.Header.Set(httpx.CSRFHeaderName, token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bearer requests exempt", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("existing cookie not reissued", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: httpx.CSRFCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Empty(t, rec.Result().Cookies())
	})
}

func TestCSRFTokenReusesIssuedCookie(t *testing.T) {
	g := &httpx.CSRFGuard{Enabled: true}

	var handed string
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := g.Token(w, r)
		require.NoError(t, err)
		handed = token
	}), g.IssueCookie())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/auth/csrf", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, handed, cookies[0].Value)
}
