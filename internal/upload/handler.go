package upload

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/finance-tracker/internal/transport"
)

type ServiceAPI interface {
	List(userID int64) (*UploadsResponse, error)
	Get(id, userID int64) (*UploadResponse, error)
	Process(ctx context.Context, userID int64, fileName string, content io.Reader) (*UploadResult, error)
	Preview(userID int64, fileName string, content io.Reader) (*PreviewResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	maxBytes int64
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, maxSizeMB int) *Handler {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		maxBytes:    int64(maxSizeMB) << 20,
	}
}

func (h *Handler) GetUploads(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	uploads, err := h.Service.List(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, uploads)
}

func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid upload id")
		return
	}

	u, err := h.Service.Get(id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	file, header, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.Service.Process(r.Context(), user.ID, header.Filename, file)
	if err != nil {
		h.Logger.Error("UploadFile: failed to process file", "user_id", user.ID, "file_name", header.Filename, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) PreviewFile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	file, header, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	preview, err := h.Service.Preview(user.ID, header.Filename, file)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, preview)
}

func (h *Handler) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if r.ContentLength > h.maxBytes {
		h.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
		return nil, nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, nil, false
		}
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "no file provided")
		return nil, nil, false
	}
	if header.Filename == "" {
		file.Close()
		h.WriteError(w, http.StatusBadRequest, "no file selected")
		return nil, nil, false
	}
	return file, header, true
}
