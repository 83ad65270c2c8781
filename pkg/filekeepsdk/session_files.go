package filekeepsdk

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

func filePath(name string) string {
	return "/v1/files/" + url.PathEscape(name)
}

// ListFiles returns the caller's files, newest first.
func (s *Session) ListFiles(ctx context.Context) ([]FileResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/files", nil, nil)
	if err != nil {
		return nil, err
	}

	var out FileListResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Upload streams content as the multipart "file" field. Uploading an
// existing name replaces it.
func (s *Session) Upload(ctx context.Context, filename string, content io.Reader) (*UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, content)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/files", pr, map[string]string{
		"Content-Type": mw.FormDataContentType(),
	})
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}

	var out UploadResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download returns the file body. The caller must close it.
func (s *Session) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, filePath(name), nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, parseErrorResponse(resp, body)
	}
	return resp.Body, nil
}

// Stat issues a HEAD request for name.
func (s *Session) Stat(ctx context.Context, name string) (*FileInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodHead, filePath(name), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp, nil)
	}

	info := &FileInfo{
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
		info.SizeBytes = n
	}
	if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		info.ModifiedAt = t
	}
	return info, nil
}

func (s *Session) DeleteFile(ctx context.Context, name string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, filePath(name), nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Convert queues a conversion of name. Scheduled is false when the queue
// was full and the job was dropped.
func (s *Session) Convert(ctx context.Context, name string) (*ConvertResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, filePath(name)+"/convert", nil, nil)
	if err != nil {
		return nil, err
	}

	var out ConvertResponse
	if err := decodeJSON(resp, &out, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConverterHealth runs the converter self-test on the server. A failing
// converter is reported as ErrorCodeConverterUnavailable.
func (s *Session) ConverterHealth(ctx context.Context) (*ConverterHealthResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/converter/health", nil, nil)
	if err != nil {
		return nil, err
	}

	var out ConverterHealthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("converter health: %w", err)
	}
	return &out, nil
}
