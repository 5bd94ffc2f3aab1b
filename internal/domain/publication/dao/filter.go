package dao

import (
	account "github.com/vadim/planer/internal/domain/account/entity"
	"github.com/vadim/planer/internal/domain/publication/entity"
)

// Filter narrows publication listings. All fields are optional.
type Filter struct {
	Platform   *account.Platform
	Status     *entity.Status
	ContentID  string
	CalendarID string
}
