package tenancy

import (
	"context"

	"github.com/vadim/planer/internal/domain/user/entity"
)

type ctxKey int

const (
	userKey ctxKey = iota
	clientKey
)

// WithUser stores the authenticated user on the context
func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the authenticated user, if any
func UserFrom(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(userKey).(*entity.User)
	return u, ok
}

// WithClient stores the resolved client on the context
func WithClient(ctx context.Context, c *entity.Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

// ClientFrom returns the resolved client, if any
func ClientFrom(ctx context.Context) (*entity.Client, bool) {
	c, ok := ctx.Value(clientKey).(*entity.Client)
	return c, ok
}

// ClientIDFrom returns the resolved client id, or "" when absent
func ClientIDFrom(ctx context.Context) string {
	if c, ok := ClientFrom(ctx); ok {
		return c.ID
	}
	return ""
}
