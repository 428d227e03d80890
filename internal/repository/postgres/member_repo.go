package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"collabcalendar/internal/domain"
)

type memberRepository struct {
	DB *sql.DB
}

// NewMemberRepository returns a domain.MemberRepository over calendar_members.
// Roles are stored by label.
func NewMemberRepository(db *sql.DB) domain.MemberRepository {
	return &memberRepository{DB: db}
}

func (r *memberRepository) ExistsByAddressAndCalendar(ctx context.Context, address, calendarID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM calendar_members
			WHERE calendar_id = $1 AND address = $2
		)
	`
	var exists bool
	if err := conn(ctx, r.DB).QueryRowContext(ctx, query, calendarID, address).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *memberRepository) GetByAddressAndCalendar(ctx context.Context, address, calendarID string) (*domain.Member, error) {
	query := `
		SELECT id, calendar_id, user_id, address, role, invited_by, created_at
		FROM calendar_members
		WHERE calendar_id = $1 AND address = $2
	`
	m := &domain.Member{}
	var role string
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, calendarID, address).
		Scan(&m.ID, &m.CalendarID, &m.UserID, &m.Address, &role, &m.InvitedBy, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	m.Role = domain.ParseMemberRole(role)
	return m, nil
}

func (r *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	query := `
		INSERT INTO calendar_members (id, calendar_id, user_id, address, role, invited_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		m.ID, m.CalendarID, m.UserID, m.Address, m.Role.String(), m.InvitedBy, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyMember
		}
		return err
	}
	return nil
}
