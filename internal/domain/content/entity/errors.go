package entity

import "github.com/vadim/planer/internal/apperror"

var (
	ErrContentNotFound        = apperror.NotFound("content not found")
	ErrMediaNotFound          = apperror.NotFound("media not found")
	ErrCalendarMismatch       = apperror.BadRequest("calendar belongs to a different client")
	ErrMediaLimitReached      = apperror.BadRequest("content media limit reached")
	ErrMediaInUse             = apperror.BadRequest("media is referenced by a publication")
	ErrContentHasPublications = apperror.BadRequest("content has active publications")
	ErrUnsupportedMimeType    = apperror.BadRequest("unsupported media type")
	ErrFileTooLarge           = apperror.BadRequest("file exceeds the size limit")
)
