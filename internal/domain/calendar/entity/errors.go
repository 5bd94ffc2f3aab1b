package entity

import "github.com/vadim/planer/internal/apperror"

var (
	ErrCalendarNotFound = apperror.NotFound("calendar not found")
	ErrColumnNotFound   = apperror.NotFound("kanban column not found")
	ErrInvalidReorder   = apperror.BadRequest("reorder must reference every column of the calendar exactly once")
)
