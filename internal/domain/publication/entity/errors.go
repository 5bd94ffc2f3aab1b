package entity

import "github.com/vadim/planer/internal/apperror"

var (
	ErrPublicationNotFound    = apperror.NotFound("publication not found")
	ErrPublicationNotEditable = apperror.BadRequest("publication cannot be edited in current status")
	ErrPublicationPublishing  = apperror.BadRequest("publication is being published and cannot be deleted")
	ErrPlatformMismatch       = apperror.BadRequest("publication platform must match the social account platform")
	ErrInvalidFormat          = apperror.BadRequest("format is not supported by the platform")
	ErrInvalidStatus          = apperror.BadRequest("invalid publication status")
	ErrMediaNotInContent      = apperror.BadRequest("publication media must belong to the parent content")
	ErrUnknownPlatform        = apperror.BadRequest("unknown platform")
)
