package filekeepsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Me returns the caller's identity.
func (s *Session) Me(ctx context.Context) (*IdentityResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var ident IdentityResponse
	if err := decodeJSON(resp, &ident, http.StatusOK); err != nil {
		return nil, err
	}
	return &ident, nil
}

// Usage returns the caller's storage consumption against their quota.
func (s *Session) Usage(ctx context.Context) (*UsageResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/me/usage", nil, nil)
	if err != nil {
		return nil, err
	}

	var usage UsageResponse
	if err := decodeJSON(resp, &usage, http.StatusOK); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	resp, err := s.doJSON(ctx, http.MethodPost, "/v1/me/password", ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func (s *Session) doJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return s.doAuthRequest(ctx, method, path, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
	})
}
