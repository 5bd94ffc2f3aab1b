package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	calendarsvc "github.com/vadim/planer/internal/domain/calendar/service"
	sharelinkentity "github.com/vadim/planer/internal/domain/sharelink/entity"
	sharelinksvc "github.com/vadim/planer/internal/domain/sharelink/service"
	"github.com/vadim/planer/internal/httpx/response"
	"github.com/vadim/planer/internal/tenancy"
)

// CalendarHandler handles HTTP requests for calendars, kanban boards
// and share links.
type CalendarHandler struct {
	calendars *calendarsvc.Service
	links     *sharelinksvc.Service
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendars *calendarsvc.Service, links *sharelinksvc.Service) *CalendarHandler {
	return &CalendarHandler{calendars: calendars, links: links}
}

// RegisterRoutes registers calendar routes. createLinkLimit throttles
// share link creation.
func (h *CalendarHandler) RegisterRoutes(r chi.Router, createLinkLimit func(http.Handler) http.Handler) {
	r.Route("/calendars", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get())
			r.Delete("/", h.Delete())

			r.Route("/columns", func(r chi.Router) {
				r.Get("/", h.ListColumns())
				r.Post("/", h.CreateColumn())
				r.Put("/reorder", h.ReorderColumns())
			})

			r.Route("/share-links", func(r chi.Router) {
				r.With(createLinkLimit).Post("/", h.CreateShareLink())
				r.Get("/", h.ListShareLinks())
				r.Delete("/{linkId}", h.RevokeShareLink())
				r.Post("/{linkId}/revoke", h.RevokeShareLink())
				r.With(createLinkLimit).Post("/{linkId}/regenerate", h.RegenerateShareLink())
			})
		})
	})
}

// CreateCalendarRequest is the request body for creating a calendar
type CreateCalendarRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// Create handles POST /calendars
func (h *CalendarHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCalendarRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.BadRequest(w, r, validationMessage(err))
			return
		}

		user, _ := tenancy.UserFrom(r.Context())
		cal, err := h.calendars.Create(r.Context(), calendarsvc.CreateInput{
			UserID:      user.ID,
			ClientID:    tenancy.ClientIDFrom(r.Context()),
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Created(w, cal)
	}
}

// List handles GET /calendars
func (h *CalendarHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cals, err := h.calendars.List(r.Context(), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, cals)
	}
}

// Get handles GET /calendars/{id}
func (h *CalendarHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cal, err := h.calendars.Get(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, cal)
	}
}

// Delete handles DELETE /calendars/{id}
func (h *CalendarHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.calendars.Delete(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.NoContent(w)
	}
}

// ListColumns handles GET /calendars/{id}/columns
func (h *CalendarHandler) ListColumns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cols, err := h.calendars.ListColumns(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, cols)
	}
}

// CreateColumnRequest is the request body for adding a kanban column
type CreateColumnRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	MappedStatus *string `json:"mappedStatus,omitempty"`
	Color        *string `json:"color,omitempty"`
}

// CreateColumn handles POST /calendars/{id}/columns
func (h *CalendarHandler) CreateColumn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateColumnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.BadRequest(w, r, validationMessage(err))
			return
		}

		col, err := h.calendars.CreateColumn(r.Context(), calendarsvc.CreateColumnInput{
			CalendarID:   chi.URLParam(r, "id"),
			ClientID:     tenancy.ClientIDFrom(r.Context()),
			Name:         req.Name,
			MappedStatus: req.MappedStatus,
			Color:        req.Color,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Created(w, col)
	}
}

// ReorderColumnsRequest is the request body for reordering the board
type ReorderColumnsRequest struct {
	ColumnIDs []string `json:"columnIds" validate:"required,min=1"`
}

// ReorderColumns handles PUT /calendars/{id}/columns/reorder
func (h *CalendarHandler) ReorderColumns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReorderColumnsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.BadRequest(w, r, validationMessage(err))
			return
		}

		cols, err := h.calendars.ReorderColumns(r.Context(), chi.URLParam(r, "id"),
			tenancy.ClientIDFrom(r.Context()), req.ColumnIDs)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, cols)
	}
}

// CreateShareLinkRequest is the request body for issuing a share link
type CreateShareLinkRequest struct {
	Permission string     `json:"permission,omitempty" validate:"omitempty,oneof=VIEW VIEW_AND_COMMENT"`
	Label      *string    `json:"label,omitempty" validate:"omitempty,max=200"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// shareLinkBody pairs the stored link with the raw token returned
// exactly once.
type shareLinkBody struct {
	ShareLink *sharelinkentity.ShareLink `json:"shareLink"`
	RawToken  string                     `json:"rawToken"`
}

// CreateShareLink handles POST /calendars/{id}/share-links
func (h *CalendarHandler) CreateShareLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateShareLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.BadRequest(w, r, validationMessage(err))
			return
		}

		out, err := h.links.Issue(r.Context(), sharelinksvc.IssueInput{
			CalendarID: chi.URLParam(r, "id"),
			ClientID:   tenancy.ClientIDFrom(r.Context()),
			Permission: sharelinkentity.Permission(req.Permission),
			Label:      req.Label,
			ExpiresAt:  req.ExpiresAt,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Created(w, shareLinkBody{ShareLink: out.Link, RawToken: out.RawToken})
	}
}

// ListShareLinks handles GET /calendars/{id}/share-links
func (h *CalendarHandler) ListShareLinks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := h.links.List(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		if links == nil {
			links = []sharelinkentity.ShareLink{}
		}
		response.OK(w, links)
	}
}

// RevokeShareLink handles DELETE /calendars/{id}/share-links/{linkId}.
// POST .../{linkId}/revoke is accepted as an alias.
func (h *CalendarHandler) RevokeShareLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.links.Revoke(r.Context(), chi.URLParam(r, "linkId"),
			chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.NoContent(w)
	}
}

// RegenerateShareLink handles POST /calendars/{id}/share-links/{linkId}/regenerate
func (h *CalendarHandler) RegenerateShareLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.links.Regenerate(r.Context(), chi.URLParam(r, "linkId"),
			chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Created(w, shareLinkBody{ShareLink: out.Link, RawToken: out.RawToken})
	}
}
