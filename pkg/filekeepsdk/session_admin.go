package filekeepsdk

import (
	"context"
	"net/http"
	"net/url"
)

// SetQuota sets an identity's quota in bytes; 0 restores the default.
// Requires an administrator session.
func (s *Session) SetQuota(ctx context.Context, identityID string, quotaBytes int64) (*IdentityResponse, error) {
	return s.adminPut(ctx, "/v1/admin/identities/"+url.PathEscape(identityID)+"/quota", SetQuotaRequest{QuotaBytes: quotaBytes})
}

// SetActive enables or disables an identity. Requires an administrator
// session.
func (s *Session) SetActive(ctx context.Context, identityID string, active bool) (*IdentityResponse, error) {
	return s.adminPut(ctx, "/v1/admin/identities/"+url.PathEscape(identityID)+"/active", SetActiveRequest{Active: active})
}

func (s *Session) adminPut(ctx context.Context, path string, body any) (*IdentityResponse, error) {
	resp, err := s.doJSON(ctx, http.MethodPut, path, body)
	if err != nil {
		return nil, err
	}

	var ident IdentityResponse
	if err := decodeJSON(resp, &ident, http.StatusOK); err != nil {
		return nil, err
	}
	return &ident, nil
}
