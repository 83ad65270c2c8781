package filekeepsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/filekeep/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeNotAuthenticated     = "not_authenticated"
	ErrorCodeForbidden            = "forbidden"
	ErrorCodeTooManyAttempts      = "too_many_attempts"
	ErrorCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrorCodeCSRFRejected         = "csrf_rejected"
	ErrorCodeEmailTaken           = "email_taken"
	ErrorCodeUsernameTaken        = "username_taken"
	ErrorCodeWeakPassword         = "weak_password"
	ErrorCodeInvalidFilename      = "invalid_filename"
	ErrorCodeExtensionNotAllowed  = "extension_not_allowed"
	ErrorCodeFileTooLarge         = "file_too_large"
	ErrorCodeQuotaExceeded        = "quota_exceeded"
	ErrorCodeFileNotFound         = "file_not_found"
	ErrorCodeIdentityNotFound     = "identity_not_found"
	ErrorCodeConverterUnavailable = "converter_unavailable"
	ErrorCodeServerError          = "server_error"
)

// APIError is an error response from the service. The server writes these
// too, so both sides agree on codes and statuses.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as the JSON error envelope.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Code, e.Description)
}

// WithDescription returns a copy of e with a different description.
func (e *APIError) WithDescription(desc string) *APIError {
	c := *e
	c.Description = desc
	return &c
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required fields",
	}

	// ErrNotAuthenticated is deliberately the same for unknown accounts,
	// wrong passwords, disabled accounts and bad tokens.
	ErrNotAuthenticated = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeNotAuthenticated,
		Description: "authentication required",
	}

	ErrForbidden = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbidden,
		Description: "insufficient privileges",
	}

	ErrTooManyAttempts = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeTooManyAttempts,
		Description: "too many login attempts, try again later",
	}

	ErrEmailTaken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeEmailTaken,
		Description: "email is already registered",
	}

	ErrUsernameTaken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeUsernameTaken,
		Description: "username is already taken",
	}

	ErrWeakPassword = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeWeakPassword,
		Description: "password is too short",
	}

	ErrInvalidFilename = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidFilename,
		Description: "filename is empty or invalid",
	}

	ErrExtensionNotAllowed = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeExtensionNotAllowed,
		Description: "file type is not allowed",
	}

	ErrFileTooLarge = &APIError{
		StatusCode:  http.StatusRequestEntityTooLarge,
		Code:        ErrorCodeFileTooLarge,
		Description: "file exceeds the upload size limit",
	}

	ErrQuotaExceeded = &APIError{
		StatusCode:  http.StatusRequestEntityTooLarge,
		Code:        ErrorCodeQuotaExceeded,
		Description: "storage quota exceeded",
	}

	ErrFileNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeFileNotFound,
		Description: "file not found",
	}

	ErrIdentityNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeIdentityNotFound,
		Description: "identity not found",
	}

	ErrConverterUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeConverterUnavailable,
		Description: "converter self-test failed",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	// HEAD responses and proxies give no body
	code := ErrorCodeServerError
	switch resp.StatusCode {
	case http.StatusNotFound:
		code = ErrorCodeFileNotFound
	case http.StatusUnauthorized:
		code = ErrorCodeNotAuthenticated
	case http.StatusForbidden:
		code = ErrorCodeForbidden
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        code,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
