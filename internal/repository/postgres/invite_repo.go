package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"collabcalendar/internal/domain"
)

const inviteColumns = `id, calendar_id, destination_address, invited_by, token_hash, expires_at, status, created_at, updated_at`

type inviteRepository struct {
	DB *sql.DB
}

// NewInviteRepository returns a domain.InviteRepository implemented with Postgres.
// The calendar_invites table keeps one row per (calendar_id, destination_address).
func NewInviteRepository(db *sql.DB) domain.InviteRepository {
	return &inviteRepository{DB: db}
}

func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	query := `
		INSERT INTO calendar_invites (id, calendar_id, destination_address, invited_by, token_hash, expires_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		inv.ID, inv.CalendarID, inv.DestinationAddress, inv.InvitedBy, nullString(inv.TokenHash),
		inv.ExpiresAt, string(inv.Status), inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *inviteRepository) Update(ctx context.Context, inv *domain.Invite) error {
	query := `
		UPDATE calendar_invites
		SET invited_by = $1, token_hash = $2, expires_at = $3, status = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query,
		inv.InvitedBy, nullString(inv.TokenHash), inv.ExpiresAt, string(inv.Status), inv.UpdatedAt, inv.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *inviteRepository) GetByCalendarAndAddress(ctx context.Context, calendarID, address string) (*domain.Invite, error) {
	query := `SELECT ` + inviteColumns + `
		FROM calendar_invites
		WHERE calendar_id = $1 AND destination_address = $2` + lockClause(ctx)
	return scanInvite(conn(ctx, r.DB).QueryRowContext(ctx, query, calendarID, address))
}

func (r *inviteRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error) {
	if tokenHash == "" {
		return nil, domain.ErrNotFound
	}
	query := `SELECT ` + inviteColumns + `
		FROM calendar_invites
		WHERE token_hash = $1` + lockClause(ctx)
	return scanInvite(conn(ctx, r.DB).QueryRowContext(ctx, query, tokenHash))
}

func (r *inviteRepository) ListByCalendarID(ctx context.Context, calendarID string, status domain.InviteStatus, params domain.PaginationParams) ([]*domain.Invite, int, error) {
	db := conn(ctx, r.DB)
	countQuery := `
		SELECT COUNT(*)
		FROM calendar_invites
		WHERE calendar_id = $1 AND ($2 = '' OR status = $2)
	`
	var total int
	if err := db.QueryRowContext(ctx, countQuery, calendarID, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + inviteColumns + `
		FROM calendar_invites
		WHERE calendar_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`
	rows, err := db.QueryContext(ctx, query, calendarID, string(status), params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	invs, err := scanInvites(rows)
	if err != nil {
		return nil, 0, err
	}
	return invs, total, nil
}

// ListExpiredPending returns pending invites whose expiry is before now. Inside a
// transaction the rows are locked and rows locked by live requests are skipped.
func (r *inviteRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domain.Invite, error) {
	query := `SELECT ` + inviteColumns + `
		FROM calendar_invites
		WHERE status = 'PENDING' AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2`
	if inTx(ctx) {
		query += ` FOR UPDATE SKIP LOCKED`
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvites(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvite(row rowScanner) (*domain.Invite, error) {
	inv := &domain.Invite{}
	var tokenHash sql.NullString
	var status string
	err := row.Scan(&inv.ID, &inv.CalendarID, &inv.DestinationAddress, &inv.InvitedBy, &tokenHash,
		&inv.ExpiresAt, &status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	inv.TokenHash = tokenHash.String
	inv.Status = domain.InviteStatus(status)
	return inv, nil
}

func scanInvites(rows *sql.Rows) ([]*domain.Invite, error) {
	invs := make([]*domain.Invite, 0)
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

// nullString stores empty strings as NULL so the token_hash index only covers live tokens.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
