package postgres

import (
	"context"
	"database/sql"
	"errors"

	"collabcalendar/internal/domain"
)

type calendarRepository struct {
	DB *sql.DB
}

// NewCalendarRepository returns a domain.CalendarRepository over the calendars table.
func NewCalendarRepository(db *sql.DB) domain.CalendarRepository {
	return &calendarRepository{DB: db}
}

func (r *calendarRepository) GetByID(ctx context.Context, id string) (*domain.Calendar, error) {
	query := `
		SELECT id, owner_id, name, visibility
		FROM calendars
		WHERE id = $1
	`
	c := &domain.Calendar{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, id).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Visibility)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}
