package entity

import "github.com/vadim/planer/internal/apperror"

var (
	ErrAccountNotFound = apperror.NotFound("social account not found")
	ErrAccountInactive = apperror.BadRequest("social account is disconnected")
)
