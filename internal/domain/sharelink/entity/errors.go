package entity

import "github.com/vadim/planer/internal/apperror"

var (
	ErrLinkNotFound       = apperror.NotFound("share link not found")
	ErrLinkInvalid        = apperror.Gone("share link is invalid")
	ErrLinkRevoked        = apperror.Gone("share link has been revoked")
	ErrLinkExpired        = apperror.Gone("share link has expired")
	ErrAlreadyRevoked     = apperror.BadRequest("share link is already revoked")
	ErrCommentNotFound    = apperror.NotFound("comment not found")
	ErrCommentForbidden   = apperror.Forbidden("comment does not belong to this commenter")
	ErrEditWindowClosed   = apperror.Forbidden("comment can no longer be edited")
	ErrCommentsNotAllowed = apperror.Forbidden("share link does not allow commenting")
	ErrPublicationOutside = apperror.BadRequest("publication does not belong to the shared calendar")
)
