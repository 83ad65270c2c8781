package http

import (
	"net/http"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/service"
	"github.com/aussiebroadwan/filekeep/pkg/filekeepsdk"
	"github.com/aussiebroadwan/filekeep/pkg/httpx"
)

type MeHandler struct {
	AuthService    *service.AuthService
	Identities     *service.IdentityCache
	StorageService *service.StorageService
}

// HandleMe handles GET /v1/me
//
//	@Summary		Current identity
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	filekeepsdk.IdentityResponse
//	@Failure		401	{object}	filekeepsdk.ErrorResponse
//	@Router			/v1/me [get].
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	subject, _ := httpx.SubjectFromContext(r.Context())
	ident, err := h.Identities.GetByID(r.Context(), subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, identityResponse(ident))
}

// HandleUsage handles GET /v1/me/usage
//
//	@Summary		Storage usage
//	@Description	Bytes stored, effective quota and file count, measured from the object store.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	filekeepsdk.UsageResponse
//	@Failure		401	{object}	filekeepsdk.ErrorResponse
//	@Router			/v1/me/usage [get].
func (h *MeHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	subject, _ := httpx.SubjectFromContext(r.Context())
	usage, err := h.StorageService.Usage(r.Context(), subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, filekeepsdk.UsageResponse{
		UsedBytes:  usage.UsedBytes,
		QuotaBytes: usage.QuotaBytes,
		FileCount:  usage.FileCount,
	})
}

// HandleChangePassword handles POST /v1/me/password
//
//	@Summary		Change password
//	@Tags			Account
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	filekeepsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		204
//	@Failure		400	{object}	filekeepsdk.ErrorResponse	"weak_password"
//	@Failure		401	{object}	filekeepsdk.ErrorResponse	"not_authenticated"
//	@Router			/v1/me/password [post].
func (h *MeHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req filekeepsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		filekeepsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}

	subject, _ := httpx.SubjectFromContext(r.Context())
	if err := h.AuthService.ChangePassword(r.Context(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
