package tenancy

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vadim/planer/internal/apperror"
	"github.com/vadim/planer/internal/auth"
	"github.com/vadim/planer/internal/domain/user/entity"
	usersvc "github.com/vadim/planer/internal/domain/user/service"
	"github.com/vadim/planer/internal/httpx/response"
)

// ClientIDHeader selects the acting client on authenticated requests
const ClientIDHeader = "X-Client-Id"

// Verifier validates bearer tokens
type Verifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// UserProvider provisions and resolves users and clients
type UserProvider interface {
	GetOrCreate(ctx context.Context, id usersvc.Identity) (*entity.User, error)
	ResolveClient(ctx context.Context, userID, clientID string) (*entity.Client, error)
}

// Middleware authenticates requests and resolves the acting client
type Middleware struct {
	verifier Verifier
	users    UserProvider
	logger   *slog.Logger
}

// NewMiddleware creates the tenancy middleware
func NewMiddleware(verifier Verifier, users UserProvider, logger *slog.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
}

// Authenticate verifies the bearer token and loads the user,
// provisioning on first sight.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			response.Error(w, r, apperror.Unauthorized("missing bearer token"))
			return
		}

		claims, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.logger.Debug("token verification failed", "error", err)
			response.Error(w, r, apperror.Unauthorized("invalid token"))
			return
		}

		user, err := m.users.GetOrCreate(r.Context(), usersvc.Identity{
			Subject: claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
			Picture: claims.Picture,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// ResolveClient resolves the acting client from the X-Client-Id
// header, falling back to the user's earliest client.
func (m *Middleware) ResolveClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok {
			response.Error(w, r, apperror.Unauthorized("missing bearer token"))
			return
		}

		requested := r.Header.Get(ClientIDHeader)
		client, err := m.users.ResolveClient(r.Context(), user.ID, requested)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		if requested == "" {
			m.logger.Debug("no client header, using earliest client",
				"user_id", user.ID, "client_id", client.ID)
		}

		next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), client)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
