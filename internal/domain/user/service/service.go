package service

import (
	"context"

	"github.com/vadim/planer/internal/domain/user/entity"
)

// UserRepository defines user and client persistence
type UserRepository interface {
	GetByExternalSubject(ctx context.Context, subject string) (*entity.User, error)
	CreateWithDefaultClient(ctx context.Context, u *entity.User) (*entity.Client, error)
	GetClient(ctx context.Context, clientID, userID string) (*entity.Client, error)
	EarliestClient(ctx context.Context, userID string) (*entity.Client, error)
	ListClients(ctx context.Context, userID string) ([]entity.Client, error)
	CreateClient(ctx context.Context, c *entity.Client) error
}

// Service handles users and their clients
type Service struct {
	users UserRepository
}

// New creates a new user service
func New(users UserRepository) *Service {
	return &Service{users: users}
}

// Identity is the verified token identity used for provisioning
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GetOrCreate returns the user for a verified identity, provisioning
// the user together with a default client on first sight.
func (s *Service) GetOrCreate(ctx context.Context, id Identity) (*entity.User, error) {
	u, err := s.users.GetByExternalSubject(ctx, id.Subject)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u = &entity.User{
		ExternalSubject: id.Subject,
		Email:           id.Email,
		Name:            id.Name,
		Avatar:          id.Picture,
	}
	if _, err := s.users.CreateWithDefaultClient(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ResolveClient validates an explicitly selected client or falls back
// to the user's earliest one.
func (s *Service) ResolveClient(ctx context.Context, userID, clientID string) (*entity.Client, error) {
	if clientID != "" {
		c, err := s.users.GetClient(ctx, clientID, userID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, entity.ErrClientForbidden
		}
		return c, nil
	}

	c, err := s.users.EarliestClient(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, entity.ErrNoClients
	}
	return c, nil
}

// ListClients retrieves the user's clients
func (s *Service) ListClients(ctx context.Context, userID string) ([]entity.Client, error) {
	return s.users.ListClients(ctx, userID)
}

// CreateClient adds a client workspace for the user
func (s *Service) CreateClient(ctx context.Context, userID, name string) (*entity.Client, error) {
	c := &entity.Client{
		UserID: userID,
		Name:   name,
	}
	if err := s.users.CreateClient(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
