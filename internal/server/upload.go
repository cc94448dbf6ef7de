package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sprov-ai/sprov-audio-service/internal/audio"
	"github.com/sprov-ai/sprov-audio-service/internal/pipeline"
)

// uploadField is the multipart field carrying the recording
const uploadField = "file"

// multipartSlack covers the multipart framing around the file itself
const multipartSlack = 64 * 1024

var (
	errNoFile       = errors.New("no file provided")
	errBadMultipart = errors.New("request must be multipart/form-data")
)

// handleAnalyze implements POST /analyze-audio/
func (h *HTTPServer) handleAnalyze(c *gin.Context) {
	up, cleanup, err := h.receiveUpload(c)
	defer cleanup()
	if err != nil {
		h.writeError(c, up.RequestID, err)
		return
	}

	report, err := h.analyzer.Analyze(c.Request.Context(), up)
	if err != nil {
		h.writeError(c, up.RequestID, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// handleTestAudio implements POST /test-audio/: the upload path without analysis
func (h *HTTPServer) handleTestAudio(c *gin.Context) {
	up, cleanup, err := h.receiveUpload(c)
	defer cleanup()
	if err != nil {
		h.writeError(c, up.RequestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"filename":  up.Filename,
		"file_size": up.Size,
	})
}

// receiveUpload streams the "file" part to a temp file. The returned cleanup removes
// it and is always non-nil, whatever the error.
func (h *HTTPServer) receiveUpload(c *gin.Context) (pipeline.Upload, func(), error) {
	up := pipeline.Upload{RequestID: uuid.NewString()}
	cleanup := func() {}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartSlack)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		return up, cleanup, fmt.Errorf("%w: %v", errBadMultipart, err)
	}

	part, err := nextFilePart(reader)
	if err != nil {
		return up, cleanup, err
	}
	defer part.Close()

	up.Filename = part.FileName()
	if !h.supported(up.Filename) {
		return up, cleanup, fmt.Errorf("%w %q. Supported formats: %v",
			pipeline.ErrUnsupportedFormat, audio.Extension(up.Filename), h.formats)
	}

	f, err := os.CreateTemp(h.config.HTTP.TempDir, "upload-"+up.RequestID+"-*"+audio.Extension(up.Filename))
	if err != nil {
		return up, cleanup, fmt.Errorf("failed to create temp file: %w", err)
	}
	up.Path = f.Name()
	cleanup = func() {
		if err := os.Remove(up.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("Failed to remove temp file", slog.String("path", up.Path), slog.String("error", err.Error()))
		}
	}

	n, err := io.Copy(f, io.LimitReader(part, h.maxUploadBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return up, cleanup, uploadError(err)
	}
	if n > h.maxUploadBytes {
		return up, cleanup, fmt.Errorf("%w: limit is %d MB", pipeline.ErrFileTooLarge, h.config.Audio.MaxFileSizeMB)
	}

	up.Size = n
	h.metrics.RecordUpload(n)

	h.logger.Debug("Upload received",
		slog.String("request_id", up.RequestID),
		slog.String("filename", up.Filename),
		slog.Int64("size", n),
	)

	return up, cleanup, nil
}

// nextFilePart skips parts until the upload field
func nextFilePart(reader *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFile
		}
		if err != nil {
			return nil, uploadError(err)
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}
		if part.FileName() == "" {
			part.Close()
			return nil, errNoFile
		}
		return part, nil
	}
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit is %d bytes", pipeline.ErrFileTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("%w: %v", errBadMultipart, err)
}

func (h *HTTPServer) supported(filename string) bool {
	return audio.SupportedExtension(filename) && slices.Contains(h.formats, audio.Extension(filename))
}

// writeError maps pipeline failures to status codes and a JSON body
func (h *HTTPServer) writeError(c *gin.Context, requestID string, err error) {
	status := statusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			slog.String("request_id", requestID),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		msg = "Audio analysis failed: " + msg
	}

	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pipeline.ErrUnsupportedFormat),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadMultipart):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrUnprocessableAudio):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrExtractionTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
