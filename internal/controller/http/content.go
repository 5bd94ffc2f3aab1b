package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/planer/internal/domain/content/entity"
	"github.com/vadim/planer/internal/domain/content/service"
	"github.com/vadim/planer/internal/httpx/response"
	"github.com/vadim/planer/internal/tenancy"
)

// maxUploadMemory bounds the in-memory part of multipart parsing
const maxUploadMemory = 32 << 20

// ContentHandler handles HTTP requests for contents and media uploads
type ContentHandler struct {
	svc *service.Service
}

// NewContentHandler creates a new content handler
func NewContentHandler(svc *service.Service) *ContentHandler {
	return &ContentHandler{svc: svc}
}

// RegisterRoutes registers content routes
func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/contents", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get())
			r.Delete("/", h.Delete())
			r.Post("/media", h.UploadMedia())
		})
	})
	r.Get("/calendars/{id}/contents", h.ListByCalendar())
	r.Delete("/media/{id}", h.DeleteMedia())
}

// CreateContentRequest is the request body for creating a content
type CreateContentRequest struct {
	CalendarID *string `json:"calendarId,omitempty" validate:"omitempty,uuid"`
	Caption    string  `json:"caption" validate:"max=5000"`
}

// Create handles POST /contents
func (h *ContentHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.BadRequest(w, r, validationMessage(err))
			return
		}

		user, _ := tenancy.UserFrom(r.Context())
		c, err := h.svc.Create(r.Context(), service.CreateInput{
			UserID:     user.ID,
			ClientID:   tenancy.ClientIDFrom(r.Context()),
			CalendarID: req.CalendarID,
			Caption:    req.Caption,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Created(w, c)
	}
}

// Get handles GET /contents/{id}
func (h *ContentHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, c)
	}
}

// ListByCalendar handles GET /calendars/{id}/contents
func (h *ContentHandler) ListByCalendar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contents, err := h.svc.ListByCalendar(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		if contents == nil {
			contents = []entity.Content{}
		}
		response.OK(w, contents)
	}
}

// Delete handles DELETE /contents/{id}
func (h *ContentHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.NoContent(w)
	}
}

// UploadMedia handles POST /contents/{id}/media with a multipart
// "file" part.
func (h *ContentHandler) UploadMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			response.BadRequest(w, r, "invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, r, "file part is required")
			return
		}
		defer file.Close()

		m, err := h.svc.UploadMedia(r.Context(), service.UploadInput{
			ContentID: chi.URLParam(r, "id"),
			ClientID:  tenancy.ClientIDFrom(r.Context()),
			Filename:  header.Filename,
			MimeType:  header.Header.Get("Content-Type"),
			Size:      header.Size,
			Body:      file,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Created(w, m)
	}
}

// DeleteMedia handles DELETE /media/{id}
func (h *ContentHandler) DeleteMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.svc.DeleteMedia(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.NoContent(w)
	}
}
