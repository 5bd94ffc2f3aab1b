package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	accountentity "github.com/vadim/planer/internal/domain/account/entity"
	"github.com/vadim/planer/internal/domain/publication/dao"
	"github.com/vadim/planer/internal/domain/publication/entity"
	"github.com/vadim/planer/internal/domain/publication/service"
	"github.com/vadim/planer/internal/httpx/response"
	"github.com/vadim/planer/internal/tenancy"
)

// PublicationHandler handles HTTP requests for publications
type PublicationHandler struct {
	svc *service.Service
}

// NewPublicationHandler creates a new publication handler
func NewPublicationHandler(svc *service.Service) *PublicationHandler {
	return &PublicationHandler{svc: svc}
}

// RegisterRoutes registers publication routes
func (h *PublicationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/publications", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Get("/{id}", h.Get())
		r.Put("/{id}", h.Update())
		r.Delete("/{id}", h.Delete())
	})
}

// PublicationMediaRequest attaches a content media item
type PublicationMediaRequest struct {
	MediaID  string                 `json:"mediaId" validate:"required,uuid"`
	Order    int                    `json:"order"`
	CropData map[string]interface{} `json:"cropData,omitempty"`
}

// CreatePublicationRequest is the request body for scheduling a
// publication.
type CreatePublicationRequest struct {
	ContentID       string                    `json:"contentId" validate:"required,uuid"`
	SocialAccountID string                    `json:"socialAccountId" validate:"required,uuid"`
	Platform        string                    `json:"platform" validate:"required"`
	Format          string                    `json:"format" validate:"required"`
	PublishAt       time.Time                 `json:"publishAt" validate:"required"`
	CustomCaption   *string                   `json:"customCaption,omitempty"`
	PlatformConfig  map[string]interface{}    `json:"platformConfig,omitempty"`
	KanbanColumnID  *string                   `json:"kanbanColumnId,omitempty"`
	Media           []PublicationMediaRequest `json:"media"`
}

// Create handles POST /publications
func (h *PublicationHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePublicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.BadRequest(w, r, validationMessage(err))
			return
		}

		media := make([]service.MediaInput, len(req.Media))
		for i, m := range req.Media {
			media[i] = service.MediaInput{
				MediaID:  m.MediaID,
				Order:    m.Order,
				CropData: m.CropData,
			}
		}

		pub, err := h.svc.Create(r.Context(), service.CreateInput{
			ClientID:        tenancy.ClientIDFrom(r.Context()),
			ContentID:       req.ContentID,
			SocialAccountID: req.SocialAccountID,
			Platform:        accountentity.Platform(req.Platform),
			Format:          entity.Format(req.Format),
			PublishAt:       req.PublishAt,
			CustomCaption:   req.CustomCaption,
			PlatformConfig:  req.PlatformConfig,
			KanbanColumnID:  req.KanbanColumnID,
			Media:           media,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}

		response.Created(w, pub)
	}
}

// List handles GET /publications
func (h *PublicationHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var filter dao.Filter
		if p := q.Get("platform"); p != "" {
			platform := accountentity.Platform(p)
			filter.Platform = &platform
		}
		if s := q.Get("status"); s != "" {
			status := entity.Status(s)
			filter.Status = &status
		}
		filter.ContentID = q.Get("contentId")
		filter.CalendarID = q.Get("calendarId")

		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		out, err := h.svc.List(r.Context(), tenancy.ClientIDFrom(r.Context()), filter, page, limit)
		if err != nil {
			response.Error(w, r, err)
			return
		}

		data := out.Publications
		if data == nil {
			data = []entity.Publication{}
		}
		response.OK(w, map[string]interface{}{
			"data": data,
			"meta": map[string]interface{}{
				"total":      out.Total,
				"page":       out.Page,
				"limit":      out.Limit,
				"totalPages": out.TotalPages,
			},
		})
	}
}

// Get handles GET /publications/{id}
func (h *PublicationHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pub, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, pub)
	}
}

// UpdatePublicationRequest is the request body for editing a
// publication.
type UpdatePublicationRequest struct {
	PublishAt      *time.Time                `json:"publishAt,omitempty"`
	CustomCaption  *string                   `json:"customCaption,omitempty"`
	ClearCaption   bool                      `json:"clearCaption,omitempty"`
	PlatformConfig map[string]interface{}    `json:"platformConfig,omitempty"`
	Format         *string                   `json:"format,omitempty"`
	KanbanColumnID *string                   `json:"kanbanColumnId,omitempty"`
	KanbanOrder    *int                      `json:"kanbanOrder,omitempty"`
	Media          []PublicationMediaRequest `json:"media,omitempty"`
}

// Update handles PUT /publications/{id}
func (h *PublicationHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdatePublicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}

		in := service.UpdateInput{
			ID:             chi.URLParam(r, "id"),
			ClientID:       tenancy.ClientIDFrom(r.Context()),
			PublishAt:      req.PublishAt,
			CustomCaption:  req.CustomCaption,
			ClearCaption:   req.ClearCaption,
			PlatformConfig: req.PlatformConfig,
			KanbanColumnID: req.KanbanColumnID,
			KanbanOrder:    req.KanbanOrder,
		}
		if req.Format != nil {
			f := entity.Format(*req.Format)
			in.Format = &f
		}
		if req.Media != nil {
			in.Media = make([]service.MediaInput, len(req.Media))
			for i, m := range req.Media {
				in.Media[i] = service.MediaInput{
					MediaID:  m.MediaID,
					Order:    m.Order,
					CropData: m.CropData,
				}
			}
		}

		pub, err := h.svc.Update(r.Context(), in)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, pub)
	}
}

// Delete handles DELETE /publications/{id}
func (h *PublicationHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.NoContent(w)
	}
}
