package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/planer/internal/domain/sharelink/service"
	"github.com/vadim/planer/internal/httpx/response"
)

const (
	// commenterCookie identifies an anonymous commenter across visits
	commenterCookie       = "planer_commenter_id"
	commenterCookieMaxAge = 90 * 24 * time.Hour
)

// SharedHandler serves the anonymous share surface
type SharedHandler struct {
	public     *service.Public
	production bool
}

// NewSharedHandler creates a new shared calendar handler
func NewSharedHandler(public *service.Public, production bool) *SharedHandler {
	return &SharedHandler{public: public, production: production}
}

// RegisterRoutes registers the public routes. resolveLimit throttles
// token resolution per client IP.
func (h *SharedHandler) RegisterRoutes(r chi.Router, resolveLimit func(http.Handler) http.Handler) {
	r.Route("/shared/{token}", func(r chi.Router) {
		r.Use(resolveLimit)
		r.Get("/", h.GetCalendar())
		r.Route("/comments", func(r chi.Router) {
			r.Get("/", h.ListComments())
			r.Post("/", h.CreateComment())
			r.Patch("/{commentId}", h.UpdateComment())
			r.Put("/{commentId}", h.UpdateComment())
			r.Delete("/{commentId}", h.DeleteComment())
		})
	})
}

// GetCalendar handles GET /shared/{token}
func (h *SharedHandler) GetCalendar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := h.public.Resolve(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		h.ensureCommenter(w, r)

		cal, err := h.public.GetSharedCalendar(r.Context(), link)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, cal)
	}
}

// ListComments handles GET /shared/{token}/comments
func (h *SharedHandler) ListComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := h.public.Resolve(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		h.ensureCommenter(w, r)

		q := r.URL.Query()
		var publicationID *string
		if id := q.Get("publicationId"); id != "" {
			publicationID = &id
		}
		var cursor *time.Time
		if c := q.Get("cursor"); c != "" {
			t, err := time.Parse(time.RFC3339Nano, c)
			if err != nil {
				response.BadRequest(w, r, "invalid cursor, use RFC3339")
				return
			}
			cursor = &t
		}
		limit, _ := strconv.Atoi(q.Get("limit"))

		page, err := h.public.GetComments(r.Context(), link, publicationID, cursor, limit)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, page)
	}
}

// CreateCommentRequest is the request body for a public comment
type CreateCommentRequest struct {
	PublicationID *string `json:"publicationId,omitempty" validate:"omitempty,uuid"`
	AuthorName    string  `json:"authorName" validate:"required,max=120"`
	AuthorEmail   *string `json:"authorEmail,omitempty" validate:"omitempty,email"`
	Body          string  `json:"body" validate:"required,max=5000"`
}

// CreateComment handles POST /shared/{token}/comments
func (h *SharedHandler) CreateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := h.public.Resolve(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		commenterID := h.ensureCommenter(w, r)

		var req CreateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.BadRequest(w, r, validationMessage(err))
			return
		}

		comment, err := h.public.CreateComment(r.Context(), link, service.CreateCommentInput{
			PublicationID: req.PublicationID,
			CommenterID:   commenterID,
			AuthorName:    req.AuthorName,
			AuthorEmail:   req.AuthorEmail,
			Body:          req.Body,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Created(w, comment)
	}
}

// UpdateCommentRequest is the request body for editing a comment
type UpdateCommentRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

// UpdateComment handles PATCH /shared/{token}/comments/{commentId}.
// PUT is accepted as an alias.
func (h *SharedHandler) UpdateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := h.public.Resolve(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		commenterID := h.ensureCommenter(w, r)

		var req UpdateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.BadRequest(w, r, validationMessage(err))
			return
		}

		comment, err := h.public.UpdateComment(r.Context(), link,
			chi.URLParam(r, "commentId"), commenterID, req.Body)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, comment)
	}
}

// DeleteComment handles DELETE /shared/{token}/comments/{commentId}
func (h *SharedHandler) DeleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := h.public.Resolve(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		commenterID := h.ensureCommenter(w, r)

		err = h.public.DeleteComment(r.Context(), link, chi.URLParam(r, "commentId"), commenterID)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.NoContent(w)
	}
}

// ensureCommenter returns the visitor's commenter id, setting the
// cookie on first contact.
func (h *SharedHandler) ensureCommenter(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(commenterCookie); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	rand.Read(buf)
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     commenterCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(commenterCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
	})
	return id
}
