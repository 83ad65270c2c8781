package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/service"
	"github.com/aussiebroadwan/filekeep/pkg/filekeepsdk"
	"github.com/aussiebroadwan/filekeep/pkg/httpx"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
)

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "access_token"

const maxJSONBody = 64 << 10

type AuthHandler struct {
	AuthService   *service.AuthService
	CSRF          *httpx.CSRFGuard
	SecureCookies bool
}

// HandleCSRF handles GET /v1/auth/csrf
//
//	@Summary		Get CSRF token
//	@Description	Returns the double-submit CSRF token and sets the csrf_token cookie when missing.
//	@Description	Echo it in the X-CSRF-Token header on unsafe requests authenticated by cookie.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	filekeepsdk.CSRFResponse
//	@Failure		500	{object}	filekeepsdk.ErrorResponse
//	@Router			/v1/auth/csrf [get].
func (h *AuthHandler) HandleCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.CSRF.Token(w, r)
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to issue csrf token", "error", err)
		filekeepsdk.ErrServerError.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, filekeepsdk.CSRFResponse{Token: token})
}

// HandleRegister handles POST /v1/auth/register
//
//	@Summary		Register
//	@Description	Creates an identity. The first identity registered becomes an administrator.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string						true	"CSRF token"
//	@Param			request			body		filekeepsdk.RegisterRequest	true	"Registration"
//	@Success		201				{object}	filekeepsdk.IdentityResponse
//	@Failure		400				{object}	filekeepsdk.ErrorResponse	"invalid_request, weak_password"
//	@Failure		403				{object}	filekeepsdk.ErrorResponse	"csrf_rejected"
//	@Failure		409				{object}	filekeepsdk.ErrorResponse	"email_taken, username_taken"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req filekeepsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		filekeepsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}

	ident, err := h.AuthService.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, identityResponse(ident))
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in
//	@Description	Exchanges email and password for a session token, also set as the HttpOnly access_token cookie.
//	@Description	Every credential failure returns the same 401. Repeated attempts from one address are throttled.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string					true	"CSRF token"
//	@Param			request			body		filekeepsdk.LoginRequest	true	"Credentials"
//	@Success		200				{object}	filekeepsdk.LoginResponse
//	@Failure		401				{object}	filekeepsdk.ErrorResponse	"not_authenticated"
//	@Failure		403				{object}	filekeepsdk.ErrorResponse	"csrf_rejected"
//	@Failure		429				{object}	filekeepsdk.ErrorResponse	"too_many_attempts"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req filekeepsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		filekeepsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}

	sess, err := h.AuthService.Login(r.Context(), httpx.ClientIP(r), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.AccessToken,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteJSON(w, http.StatusOK, filekeepsdk.LoginResponse{
		AccessToken: sess.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(sess.ExpiresAt).Seconds()),
		Identity:    identityResponse(sess.Identity),
	})
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Clears the session cookie. Tokens are stateless and stay valid until they expire.
//	@Tags			Auth
//	@Param			X-CSRF-Token	header	string	false	"CSRF token, required for cookie sessions"
//	@Success		204
//	@Failure		403	{object}	filekeepsdk.ErrorResponse	"csrf_rejected"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
