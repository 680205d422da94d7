package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventbudget/internal/log"
)

// maxUploadBytes bounds a multipart attachment upload.
const maxUploadBytes = 10 << 20

type uploadResponse struct {
	URL string `json:"url"`
}

// handleUploadAttachment stores the multipart "file" field and returns the
// URL to reference from an expense or payment.
func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		ErrorResponse(http.StatusServiceUnavailable, "attachment storage is not configured").Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "attachment too large").Write(w)
			return
		}
		BadRequestError("expected a multipart form").Write(w)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("file: is required").Write(w)
		return
	}
	defer file.Close()

	ownerID := chi.URLParam(r, "ownerID")
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := s.files.Upload(r.Context(), ownerID, header.Filename, contentType, file)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Attachment upload failed",
			log.NewFields().WithError(err).WithComponent(log.ComponentAttachments).ToSlice()...)
		ErrorResponse(http.StatusInternalServerError, "Failed to upload attachment").Write(w)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Attachment uploaded",
		log.FieldOwnerID, ownerID, log.FieldURL, url, "size", header.Size)
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
