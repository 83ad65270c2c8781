package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/service"
	"github.com/aussiebroadwan/filekeep/pkg/filekeepsdk"
	"github.com/aussiebroadwan/filekeep/pkg/httpx"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
)

// multipart framing allowance on top of the file itself
const multipartOverhead = 1 << 20

type FilesHandler struct {
	StorageService    *service.StorageService
	ConversionService *service.ConversionService
	MaxUploadBytes    int64
}

// HandleList handles GET /v1/files
//
//	@Summary		List files
//	@Description	Lists the caller's files, newest first.
//	@Tags			Files
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	filekeepsdk.FileListResponse
//	@Failure		401	{object}	filekeepsdk.ErrorResponse
//	@Router			/v1/files [get].
func (h *FilesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	subject, _ := httpx.SubjectFromContext(r.Context())
	files, err := h.StorageService.ListFiles(r.Context(), subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := filekeepsdk.FileListResponse{Files: make([]filekeepsdk.FileResponse, 0, len(files))}
	for _, f := range files {
		out.Files = append(out.Files, fileResponse(f))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleUpload handles POST /v1/files
//
//	@Summary		Upload a file
//	@Description	Stores the multipart "file" field under the caller's namespace. The filename is normalised;
//	@Description	an existing file with the same name is replaced. Convertible models are queued for conversion.
//	@Tags			Files
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"File to upload"
//	@Success		201		{object}	filekeepsdk.UploadResponse
//	@Failure		400		{object}	filekeepsdk.ErrorResponse	"invalid_filename, extension_not_allowed"
//	@Failure		413		{object}	filekeepsdk.ErrorResponse	"file_too_large, quota_exceeded"
//	@Router			/v1/files [post].
func (h *FilesHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		filekeepsdk.ErrInvalidRequest.WithDescription("expected a multipart/form-data body").WriteError(w)
		return
	}

	var (
		filename    string
		contentType string
		data        []byte
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			filekeepsdk.ErrInvalidRequest.WithDescription(`missing "file" field`).WriteError(w)
			return
		}
		if err != nil {
			writeBodyError(w, err)
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		filename = part.FileName()
		contentType = part.Header.Get("Content-Type")
		data, err = io.ReadAll(io.LimitReader(part, h.MaxUploadBytes+1))
		_ = part.Close()
		if err != nil {
			writeBodyError(w, err)
			return
		}
		break
	}

	if filename == "" {
		filekeepsdk.ErrInvalidFilename.WriteError(w)
		return
	}
	if contentType == "application/octet-stream" {
		// multipart default; let storage sniff it
		contentType = ""
	}

	subject, _ := httpx.SubjectFromContext(ctx)
	rec, err := h.StorageService.Upload(ctx, subject, filename, data, contentType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	scheduled := false
	if h.ConversionService != nil && h.ConversionService.Convertible(rec.StoredName) {
		scheduled = h.ConversionService.Schedule(subject, rec.StoredName)
	}
	log.Info("file uploaded", "file", rec.StoredName, "size", rec.SizeBytes, "conversion_scheduled", scheduled)

	httpx.WriteJSON(w, http.StatusCreated, filekeepsdk.UploadResponse{
		File:                fileResponse(rec),
		ConversionScheduled: scheduled,
	})
}

func writeBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		filekeepsdk.ErrFileTooLarge.WriteError(w)
		return
	}
	filekeepsdk.ErrInvalidRequest.WithDescription("malformed multipart body").WriteError(w)
}

// HandleDownload handles GET /v1/files/{name}
//
//	@Summary		Download a file
//	@Tags			Files
//	@Security		BearerAuth
//	@Produce		octet-stream
//	@Param			name	path	string	true	"Stored file name"
//	@Success		200
//	@Failure		404	{object}	filekeepsdk.ErrorResponse	"file_not_found"
//	@Router			/v1/files/{name} [get].
func (h *FilesHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	subject, _ := httpx.SubjectFromContext(r.Context())
	data, obj, err := h.StorageService.Download(r.Context(), subject, r.PathValue("name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": path.Base(obj.Key),
	}))
	if !obj.LastModified.IsZero() {
		w.Header().Set("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleHead handles HEAD /v1/files/{name}
//
//	@Summary		File metadata
//	@Description	Size, type and modification time as headers.
//	@Tags			Files
//	@Security		BearerAuth
//	@Param			name	path	string	true	"Stored file name"
//	@Success		200
//	@Failure		404
//	@Router			/v1/files/{name} [head].
func (h *FilesHandler) HandleHead(w http.ResponseWriter, r *http.Request) {
	subject, _ := httpx.SubjectFromContext(r.Context())
	rec, err := h.StorageService.Stat(r.Context(), subject, r.PathValue("name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	modified := rec.UpdatedAt
	if modified.IsZero() {
		modified = rec.CreatedAt
	}
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(rec.SizeBytes, 10))
	w.Header().Set("Last-Modified", modified.UTC().Format(http.TimeFormat))
	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
}

// HandleDelete handles DELETE /v1/files/{name}
//
//	@Summary		Delete a file
//	@Tags			Files
//	@Security		BearerAuth
//	@Param			name	path	string	true	"Stored file name"
//	@Success		204
//	@Failure		404	{object}	filekeepsdk.ErrorResponse	"file_not_found"
//	@Router			/v1/files/{name} [delete].
func (h *FilesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	subject, _ := httpx.SubjectFromContext(r.Context())
	if err := h.StorageService.Delete(r.Context(), subject, r.PathValue("name")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleConvert handles POST /v1/files/{name}/convert
//
//	@Summary		Re-run conversion
//	@Description	Queues a conversion of an uploaded model. Conversions are never retried automatically.
//	@Tags			Files
//	@Security		BearerAuth
//	@Produce		json
//	@Param			name	path		string	true	"Stored file name"
//	@Success		202		{object}	filekeepsdk.ConvertResponse	"scheduled is false when the queue was full"
//	@Failure		400		{object}	filekeepsdk.ErrorResponse	"invalid_request"
//	@Failure		404		{object}	filekeepsdk.ErrorResponse	"file_not_found"
//	@Router			/v1/files/{name}/convert [post].
func (h *FilesHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, _ := httpx.SubjectFromContext(ctx)

	rec, err := h.StorageService.Stat(ctx, subject, r.PathValue("name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if h.ConversionService == nil || !h.ConversionService.Convertible(rec.StoredName) {
		filekeepsdk.ErrInvalidRequest.WithDescription("file type is not converted").WriteError(w)
		return
	}

	scheduled := h.ConversionService.Schedule(subject, rec.StoredName)
	httpx.WriteJSON(w, http.StatusAccepted, filekeepsdk.ConvertResponse{Scheduled: scheduled})
}

// HandleConverterHealth handles GET /v1/converter/health
//
//	@Summary		Converter self-test
//	@Tags			Files
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	filekeepsdk.ConverterHealthResponse
//	@Failure		503	{object}	filekeepsdk.ErrorResponse	"converter_unavailable"
//	@Router			/v1/converter/health [get].
func (h *FilesHandler) HandleConverterHealth(w http.ResponseWriter, r *http.Request) {
	if h.ConversionService == nil {
		filekeepsdk.ErrConverterUnavailable.WriteError(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if err := h.ConversionService.SelfTest(ctx); err != nil {
		slogx.FromContext(ctx).Warn("converter self-test failed", "error", err)
		filekeepsdk.ErrConverterUnavailable.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, filekeepsdk.ConverterHealthResponse{Status: "ok"})
}
