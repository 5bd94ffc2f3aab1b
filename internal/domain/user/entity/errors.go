package entity

import "github.com/vadim/planer/internal/apperror"

var (
	ErrUserNotFound   = apperror.NotFound("user not found")
	ErrClientNotFound = apperror.NotFound("client not found")
	ErrClientForbidden = apperror.Forbidden("client does not belong to the authenticated user")
	ErrNoClients      = apperror.BadRequest("user has no clients")
)
