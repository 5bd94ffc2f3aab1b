package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/vadim/planer/internal/domain/calendar/entity"
)

type fakeCalendarRepo struct {
	calendars map[string]*entity.Calendar
}

func (r *fakeCalendarRepo) Create(ctx context.Context, c *entity.Calendar) error {
	if c.ID == "" {
		c.ID = "cal-new"
	}
	r.calendars[c.ID] = c
	return nil
}

func (r *fakeCalendarRepo) GetByID(ctx context.Context, id, clientID string) (*entity.Calendar, error) {
	c, ok := r.calendars[id]
	if !ok || c.ClientID != clientID {
		return nil, nil
	}
	return c, nil
}

func (r *fakeCalendarRepo) List(ctx context.Context, clientID string) ([]entity.Calendar, error) {
	var out []entity.Calendar
	for _, c := range r.calendars {
		if c.ClientID == clientID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCalendarRepo) Delete(ctx context.Context, id, clientID string) (bool, error) {
	c, ok := r.calendars[id]
	if !ok || c.ClientID != clientID {
		return false, nil
	}
	delete(r.calendars, id)
	return true, nil
}

type fakeKanbanRepo struct {
	columns  map[string]*entity.KanbanColumn
	reorders int
}

func (r *fakeKanbanRepo) ListColumns(ctx context.Context, calendarID, clientID string) ([]entity.KanbanColumn, error) {
	var out []entity.KanbanColumn
	for _, col := range r.columns {
		if col.CalendarID == calendarID {
			out = append(out, *col)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeKanbanRepo) CreateColumn(ctx context.Context, col *entity.KanbanColumn) error {
	if col.ID == "" {
		col.ID = "col-new"
	}
	col.Order = len(r.columns)
	r.columns[col.ID] = col
	return nil
}

func (r *fakeKanbanRepo) Reorder(ctx context.Context, calendarID string, columnIDs []string) error {
	r.reorders++
	for i, id := range columnIDs {
		r.columns[id].Order = i
	}
	return nil
}

func testService() (*Service, *fakeKanbanRepo) {
	calendars := &fakeCalendarRepo{calendars: map[string]*entity.Calendar{
		"cal-1": {ID: "cal-1", ClientID: "client-1", Name: "August"},
	}}
	kanban := &fakeKanbanRepo{columns: map[string]*entity.KanbanColumn{
		"col-a": {ID: "col-a", CalendarID: "cal-1", Name: "Idea", Order: 0},
		"col-b": {ID: "col-b", CalendarID: "cal-1", Name: "Draft", Order: 1},
		"col-c": {ID: "col-c", CalendarID: "cal-1", Name: "Ready", Order: 2},
	}}
	return New(calendars, kanban), kanban
}

func TestReorderColumns(t *testing.T) {
	s, kanban := testService()

	cols, err := s.ReorderColumns(context.Background(), "cal-1", "client-1",
		[]string{"col-c", "col-a", "col-b"})
	if err != nil {
		t.Fatalf("ReorderColumns: %v", err)
	}
	if cols[0].ID != "col-c" || cols[1].ID != "col-a" || cols[2].ID != "col-b" {
		t.Errorf("board order = %s %s %s", cols[0].ID, cols[1].ID, cols[2].ID)
	}
	if kanban.reorders != 1 {
		t.Errorf("reorders = %d, want 1", kanban.reorders)
	}
}

func TestReorderColumnsRejectsBadIDSets(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
	}{
		{"duplicate id", []string{"col-a", "col-a", "col-b"}},
		{"foreign id", []string{"col-a", "col-b", "col-x"}},
		{"missing column", []string{"col-a", "col-b"}},
		{"extra column", []string{"col-a", "col-b", "col-c", "col-c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, kanban := testService()
			_, err := s.ReorderColumns(context.Background(), "cal-1", "client-1", tt.ids)
			if !errors.Is(err, entity.ErrInvalidReorder) {
				t.Errorf("err = %v, want invalid reorder", err)
			}
			if kanban.reorders != 0 {
				t.Error("rejected payload must not touch the board")
			}
		})
	}
}

func TestReorderColumnsForeignCalendar(t *testing.T) {
	s, _ := testService()

	_, err := s.ReorderColumns(context.Background(), "cal-1", "client-2",
		[]string{"col-a", "col-b", "col-c"})
	if !errors.Is(err, entity.ErrCalendarNotFound) {
		t.Errorf("err = %v, want calendar not found", err)
	}
}
