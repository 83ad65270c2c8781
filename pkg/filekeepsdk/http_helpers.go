package filekeepsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	csrfHeaderName = "X-CSRF-Token"

	// maxResponseBytes bounds JSON bodies; downloads stream and skip it.
	maxResponseBytes = 16 << 20
)

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// send issues one request. An empty bearer sends it anonymously, relying on
// the cookie jar alone.
func (c *SDKClient) send(ctx context.Context, method, path string, body io.Reader, headers map[string]string, bearer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("filekeepsdk: build %s %s: %w", method, path, err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("filekeepsdk: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *SDKClient) doRequest(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	return c.send(ctx, method, path, body, headers, "")
}

// doAuthRequest fails with ErrSessionExpired before touching the network
// once the token has lapsed.
func (s *Session) doAuthRequest(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	token, err := s.validToken()
	if err != nil {
		return nil, err
	}
	return s.client.send(ctx, method, path, body, headers, token)
}

// expect consumes and closes resp. A status other than want becomes an
// *APIError; otherwise the body is decoded into target when it is non-nil.
func expect(resp *http.Response, want int, target any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("filekeepsdk: read response: %w", err)
	}
	if resp.StatusCode != want {
		if err := parseErrorResponse(resp, raw); err != nil {
			return err
		}
		return fmt.Errorf("filekeepsdk: unexpected status %d, want %d", resp.StatusCode, want)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("filekeepsdk: decode response: %w", err)
	}
	return nil
}

func decodeJSON(resp *http.Response, target any, want int) error {
	return expect(resp, want, target)
}

func checkStatusNoContent(resp *http.Response) error {
	return expect(resp, http.StatusNoContent, nil)
}
