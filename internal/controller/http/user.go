package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/planer/internal/apperror"
	"github.com/vadim/planer/internal/domain/user/entity"
	"github.com/vadim/planer/internal/domain/user/service"
	"github.com/vadim/planer/internal/httpx/response"
	"github.com/vadim/planer/internal/tenancy"
)

// UserHandler handles HTTP requests for the authenticated user
type UserHandler struct {
	svc *service.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *service.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// RegisterRoutes registers user routes
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.Me())
	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.ListClients())
		r.Post("/", h.CreateClient())
	})
}

// Me handles GET /me
func (h *UserHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := tenancy.UserFrom(r.Context())
		if !ok {
			response.Error(w, r, apperror.Unauthorized("missing bearer token"))
			return
		}
		response.OK(w, user)
	}
}

// ListClients handles GET /clients
func (h *UserHandler) ListClients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := tenancy.UserFrom(r.Context())
		if !ok {
			response.Error(w, r, apperror.Unauthorized("missing bearer token"))
			return
		}

		clients, err := h.svc.ListClients(r.Context(), user.ID)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		if clients == nil {
			clients = []entity.Client{}
		}
		response.OK(w, clients)
	}
}

// CreateClientRequest is the request body for adding a client
type CreateClientRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateClient handles POST /clients
func (h *UserHandler) CreateClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := tenancy.UserFrom(r.Context())
		if !ok {
			response.Error(w, r, apperror.Unauthorized("missing bearer token"))
			return
		}

		var req CreateClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.BadRequest(w, r, validationMessage(err))
			return
		}

		client, err := h.svc.CreateClient(r.Context(), user.ID, req.Name)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Created(w, client)
	}
}
