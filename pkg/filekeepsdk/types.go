package filekeepsdk

import "time"

// ErrorResponse is the JSON error envelope written by the service.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

type CSRFResponse struct {
	Token string `json:"csrf_token"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token. Browsers also receive it as the
// HttpOnly access_token cookie.
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int              `json:"expires_in"`
	Identity    IdentityResponse `json:"identity"`
}

type IdentityResponse struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	Active            bool       `json:"active"`
	Admin             bool       `json:"admin"`
	EmailVerified     bool       `json:"email_verified"`
	StorageQuotaBytes int64      `json:"storage_quota_bytes"`
	UsedStorageBytes  int64      `json:"used_storage_bytes"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UsageResponse struct {
	UsedBytes  int64 `json:"used_bytes"`
	QuotaBytes int64 `json:"quota_bytes"`
	FileCount  int   `json:"file_count"`
}

type FileResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	SizeBytes    int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type FileListResponse struct {
	Files []FileResponse `json:"files"`
}

// UploadResponse reports the stored file and whether a background
// conversion was queued for it.
type UploadResponse struct {
	File                FileResponse `json:"file"`
	ConversionScheduled bool         `json:"conversion_scheduled"`
}

type ConvertResponse struct {
	Scheduled bool `json:"scheduled"`
}

// FileInfo is what a HEAD request reveals about a stored file.
type FileInfo struct {
	Name        string
	SizeBytes   int64
	ContentType string
	ModifiedAt  time.Time
}

type ConverterHealthResponse struct {
	Status string `json:"status"`
}

type SetQuotaRequest struct {
	QuotaBytes int64 `json:"quota_bytes"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}
