package filekeepsdk

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// ErrSessionExpired is returned before sending a request with a token the
// client already knows to be expired.
var ErrSessionExpired = errors.New("filekeepsdk: session expired, log in again")

// Session is an authenticated session. Tokens are not refreshed; log in
// again once it expires. Safe for concurrent use.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time // zero when unknown
	identity    IdentityResponse
}

func newSession(client *SDKClient, resp *LoginResponse) *Session {
	return &Session{
		client:      client,
		accessToken: resp.AccessToken,
		expiresAt:   time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		identity:    resp.Identity,
	}
}

func (s *Session) validToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.accessToken == "" {
		return "", ErrSessionExpired
	}
	if !s.expiresAt.IsZero() && !time.Now().Before(s.expiresAt) {
		return "", ErrSessionExpired
	}
	return s.accessToken, nil
}

// AccessToken returns the raw bearer token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Identity returns the identity reported at login.
func (s *Session) Identity() IdentityResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Logout tells the service to drop the session cookie and forgets the
// token locally.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	if err := checkStatusNoContent(resp); err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
	return nil
}
