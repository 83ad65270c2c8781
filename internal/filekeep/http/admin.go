package http

import (
	"net/http"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/service"
	"github.com/aussiebroadwan/filekeep/pkg/filekeepsdk"
	"github.com/aussiebroadwan/filekeep/pkg/httpx"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
)

type AdminHandler struct {
	AuthService *service.AuthService
}

// HandleSetQuota handles PUT /v1/admin/identities/{id}/quota
//
//	@Summary		Set storage quota
//	@Description	Sets an identity's quota in bytes. 0 restores the service default.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Identity ID"
//	@Param			request	body		filekeepsdk.SetQuotaRequest	true	"Quota"
//	@Success		200		{object}	filekeepsdk.IdentityResponse
//	@Failure		400		{object}	filekeepsdk.ErrorResponse	"invalid_request"
//	@Failure		403		{object}	filekeepsdk.ErrorResponse	"forbidden"
//	@Failure		404		{object}	filekeepsdk.ErrorResponse	"identity_not_found"
//	@Router			/v1/admin/identities/{id}/quota [put].
func (h *AdminHandler) HandleSetQuota(w http.ResponseWriter, r *http.Request) {
	var req filekeepsdk.SetQuotaRequest
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		filekeepsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}

	ident, err := h.AuthService.SetQuota(r.Context(), r.PathValue("id"), req.QuotaBytes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	slogx.FromContext(r.Context()).Info("quota updated", "identity_id", ident.ID, "quota_bytes", req.QuotaBytes)
	httpx.WriteJSON(w, http.StatusOK, identityResponse(ident))
}

// HandleSetActive handles PUT /v1/admin/identities/{id}/active
//
//	@Summary		Enable or disable an identity
//	@Description	Disabled identities cannot log in and their sessions stop working.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Identity ID"
//	@Param			request	body		filekeepsdk.SetActiveRequest	true	"Active flag"
//	@Success		200		{object}	filekeepsdk.IdentityResponse
//	@Failure		403		{object}	filekeepsdk.ErrorResponse	"forbidden"
//	@Failure		404		{object}	filekeepsdk.ErrorResponse	"identity_not_found"
//	@Router			/v1/admin/identities/{id}/active [put].
func (h *AdminHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	var req filekeepsdk.SetActiveRequest
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		filekeepsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}

	ident, err := h.AuthService.SetActive(r.Context(), r.PathValue("id"), req.Active)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	slogx.FromContext(r.Context()).Info("identity active flag updated", "identity_id", ident.ID, "active", req.Active)
	httpx.WriteJSON(w, http.StatusOK, identityResponse(ident))
}
