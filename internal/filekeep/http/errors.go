package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store"
	"github.com/aussiebroadwan/filekeep/pkg/filekeepsdk"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
)

// writeServiceError maps a service error onto the API error envelope.
// Anything unrecognised is logged and reported as a server error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var throttled *domain.ThrottledError
	if errors.As(err, &throttled) {
		secs := int(math.Ceil(throttled.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		filekeepsdk.ErrTooManyAttempts.WriteError(w)
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, store.ErrNotFound):
		filekeepsdk.ErrNotAuthenticated.WriteError(w)
	case errors.Is(err, domain.ErrForbidden):
		filekeepsdk.ErrForbidden.WriteError(w)
	case errors.Is(err, domain.ErrInvalidInput):
		filekeepsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, domain.ErrEmailTaken):
		filekeepsdk.ErrEmailTaken.WriteError(w)
	case errors.Is(err, domain.ErrUsernameTaken):
		filekeepsdk.ErrUsernameTaken.WriteError(w)
	case errors.Is(err, domain.ErrWeakPassword):
		filekeepsdk.ErrWeakPassword.WriteError(w)
	case errors.Is(err, domain.ErrIdentityNotFound):
		filekeepsdk.ErrIdentityNotFound.WriteError(w)
	case errors.Is(err, domain.ErrInvalidFilename):
		filekeepsdk.ErrInvalidFilename.WriteError(w)
	case errors.Is(err, domain.ErrExtensionNotAllowed):
		filekeepsdk.ErrExtensionNotAllowed.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, domain.ErrFileTooLarge):
		filekeepsdk.ErrFileTooLarge.WriteError(w)
	case errors.Is(err, domain.ErrQuotaExceeded):
		filekeepsdk.ErrQuotaExceeded.WriteError(w)
	case errors.Is(err, domain.ErrFileNotFound):
		filekeepsdk.ErrFileNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		filekeepsdk.ErrServerError.WriteError(w)
	}
}
