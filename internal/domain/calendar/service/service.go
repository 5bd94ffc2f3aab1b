package service

import (
	"context"

	"github.com/vadim/planer/internal/domain/calendar/entity"
)

// CalendarRepository defines calendar persistence
type CalendarRepository interface {
	Create(ctx context.Context, c *entity.Calendar) error
	GetByID(ctx context.Context, id, clientID string) (*entity.Calendar, error)
	List(ctx context.Context, clientID string) ([]entity.Calendar, error)
	Delete(ctx context.Context, id, clientID string) (bool, error)
}

// KanbanRepository defines kanban column persistence
type KanbanRepository interface {
	ListColumns(ctx context.Context, calendarID, clientID string) ([]entity.KanbanColumn, error)
	CreateColumn(ctx context.Context, col *entity.KanbanColumn) error
	Reorder(ctx context.Context, calendarID string, columnIDs []string) error
}

// Service handles calendars and their kanban boards
type Service struct {
	calendars CalendarRepository
	kanban    KanbanRepository
}

// New creates a new calendar service
func New(calendars CalendarRepository, kanban KanbanRepository) *Service {
	return &Service{calendars: calendars, kanban: kanban}
}

// CreateInput represents input for creating a calendar
type CreateInput struct {
	UserID      string
	ClientID    string
	Name        string
	Description string
}

// Create creates a calendar
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Calendar, error) {
	c := &entity.Calendar{
		UserID:      in.UserID,
		ClientID:    in.ClientID,
		Name:        in.Name,
		Description: in.Description,
	}
	if err := s.calendars.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get retrieves a calendar scoped to the client
func (s *Service) Get(ctx context.Context, id, clientID string) (*entity.Calendar, error) {
	c, err := s.calendars.GetByID(ctx, id, clientID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, entity.ErrCalendarNotFound
	}
	return c, nil
}

// List retrieves the client's calendars
func (s *Service) List(ctx context.Context, clientID string) ([]entity.Calendar, error) {
	return s.calendars.List(ctx, clientID)
}

// Delete removes a calendar; contents, share links, comments and
// columns cascade.
func (s *Service) Delete(ctx context.Context, id, clientID string) error {
	deleted, err := s.calendars.Delete(ctx, id, clientID)
	if err != nil {
		return err
	}
	if !deleted {
		return entity.ErrCalendarNotFound
	}
	return nil
}

// ListColumns retrieves the calendar's kanban columns in board order
func (s *Service) ListColumns(ctx context.Context, calendarID, clientID string) ([]entity.KanbanColumn, error) {
	if _, err := s.Get(ctx, calendarID, clientID); err != nil {
		return nil, err
	}
	return s.kanban.ListColumns(ctx, calendarID, clientID)
}

// CreateColumnInput represents input for adding a kanban column
type CreateColumnInput struct {
	CalendarID   string
	ClientID     string
	Name         string
	MappedStatus *string
	Color        *string
}

// CreateColumn appends a column to the end of the board
func (s *Service) CreateColumn(ctx context.Context, in CreateColumnInput) (*entity.KanbanColumn, error) {
	if _, err := s.Get(ctx, in.CalendarID, in.ClientID); err != nil {
		return nil, err
	}

	col := &entity.KanbanColumn{
		CalendarID:   in.CalendarID,
		Name:         in.Name,
		MappedStatus: in.MappedStatus,
		Color:        in.Color,
	}
	if err := s.kanban.CreateColumn(ctx, col); err != nil {
		return nil, err
	}
	return col, nil
}

// ReorderColumns rewrites the board order in one transaction. The id
// list must cover the calendar's columns exactly, without duplicates.
func (s *Service) ReorderColumns(ctx context.Context, calendarID, clientID string, columnIDs []string) ([]entity.KanbanColumn, error) {
	if _, err := s.Get(ctx, calendarID, clientID); err != nil {
		return nil, err
	}

	cols, err := s.kanban.ListColumns(ctx, calendarID, clientID)
	if err != nil {
		return nil, err
	}
	if len(cols) != len(columnIDs) {
		return nil, entity.ErrInvalidReorder
	}
	unused := make(map[string]bool, len(cols))
	for _, c := range cols {
		unused[c.ID] = true
	}
	for _, id := range columnIDs {
		if !unused[id] {
			return nil, entity.ErrInvalidReorder
		}
		unused[id] = false
	}

	if err := s.kanban.Reorder(ctx, calendarID, columnIDs); err != nil {
		return nil, err
	}
	return s.kanban.ListColumns(ctx, calendarID, clientID)
}
