package controllers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"records-api/apperror"
	"records-api/uploads"
)

// multipart overhead allowed on top of the file itself
const formOverhead = 1 << 20

type FileSaver interface {
	Save(r io.Reader, originalName, contentType string, size int64) (uploads.Saved, error)
}

var uploadMessages = []struct {
	err error
	msg string
}{
	{uploads.ErrNoFile, "No file uploaded"},
	{uploads.ErrInvalidType, "Invalid file type. Only image files are allowed."},
	{uploads.ErrTooLarge, "File size exceeds 5MB limit"},
}

type uploadResponse struct {
	Success bool `json:"success"`
	uploads.Saved
}

type Upload struct {
	files  FileSaver
	logger *slog.Logger
}

func NewUpload(files FileSaver, logger *slog.Logger) *Upload {
	return &Upload{files: files, logger: logger}
}

// Create stores the multipart field "file" and returns its public URL.
func (h *Upload) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxFileSize+formOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, classifyFormError(err))
		return
	}
	defer file.Close()

	saved, err := h.files.Save(file, header.Filename, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Saved: saved})
}

func (h *Upload) fail(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range uploadMessages {
		if errors.Is(err, m.err) {
			writeError(w, r, h.logger, apperror.New(apperror.InvalidPayload, m.msg))
			return
		}
	}
	writeError(w, r, h.logger, &apperror.Error{
		Kind:    apperror.Unexpected,
		Message: "Failed to upload file",
		Err:     err,
	})
}

func classifyFormError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
		return uploads.ErrTooLarge
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return uploads.ErrNoFile
	}
	return err
}
