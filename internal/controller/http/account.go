package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/planer/internal/domain/account/entity"
	"github.com/vadim/planer/internal/httpx/response"
	"github.com/vadim/planer/internal/tenancy"
)

// AccountRepository lists the client's connected social accounts
type AccountRepository interface {
	List(ctx context.Context, clientID string) ([]entity.SocialAccount, error)
	GetByID(ctx context.Context, id, clientID string) (*entity.SocialAccount, error)
}

// AccountHandler handles HTTP requests for social accounts
type AccountHandler struct {
	accounts AccountRepository
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountRepository) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.List())
		r.Get("/{id}", h.Get())
	})
}

// List handles GET /accounts
func (h *AccountHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := h.accounts.List(r.Context(), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		if accounts == nil {
			accounts = []entity.SocialAccount{}
		}
		response.OK(w, accounts)
	}
}

// Get handles GET /accounts/{id}
func (h *AccountHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := h.accounts.GetByID(r.Context(), chi.URLParam(r, "id"), tenancy.ClientIDFrom(r.Context()))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		if acc == nil {
			response.Error(w, r, entity.ErrAccountNotFound)
			return
		}
		response.OK(w, acc)
	}
}
