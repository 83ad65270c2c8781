package filekeepsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// SDKClient talks to the unauthenticated endpoints and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with its own cookie jar, which holds the
// CSRF cookie between requests.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil)
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// CSRFToken fetches the CSRF token, setting the cookie if it was missing.
func (c *SDKClient) CSRFToken(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/csrf", nil, nil)
	if err != nil {
		return "", err
	}

	var out CSRFResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Register creates an identity. The first identity on a fresh service is
// an administrator.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*IdentityResponse, error) {
	resp, err := c.postJSONWithCSRF(ctx, "/v1/auth/register", req)
	if err != nil {
		return nil, err
	}

	var ident IdentityResponse
	if err := decodeJSON(resp, &ident, http.StatusCreated); err != nil {
		return nil, err
	}
	return &ident, nil
}

// Login exchanges credentials for a Session.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.postJSONWithCSRF(ctx, "/v1/auth/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, &out), nil
}

// NewSessionFromToken wraps a token obtained elsewhere. Its expiry is
// unknown, so the server decides when it stops working.
func (c *SDKClient) NewSessionFromToken(accessToken string) *Session {
	return &Session{client: c, accessToken: accessToken}
}

func (c *SDKClient) postJSONWithCSRF(ctx context.Context, path string, body any) (*http.Response, error) {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch csrf token: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	return c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
		csrfHeaderName: token,
	})
}
