package domain

import (
	"context"
	"strings"
	"time"
)

// InviteStatus is the lifecycle state of a calendar invite.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "PENDING"
	InviteStatusAccepted  InviteStatus = "ACCEPTED"
	InviteStatusExpired   InviteStatus = "EXPIRED"
	InviteStatusCancelled InviteStatus = "CANCELLED"
)

// IsTerminal reports whether no transition other than rotation leaves this status.
func (s InviteStatus) IsTerminal() bool {
	return s == InviteStatusAccepted || s == InviteStatusExpired || s == InviteStatusCancelled
}

// ParseInviteStatus converts a label (case-insensitive) into an InviteStatus.
// The empty string parses to the zero status, meaning "any".
func ParseInviteStatus(label string) (InviteStatus, bool) {
	switch InviteStatus(strings.ToUpper(strings.TrimSpace(label))) {
	case "":
		return "", true
	case InviteStatusPending:
		return InviteStatusPending, true
	case InviteStatusAccepted:
		return InviteStatusAccepted, true
	case InviteStatusExpired:
		return InviteStatusExpired, true
	case InviteStatusCancelled:
		return InviteStatusCancelled, true
	default:
		return "", false
	}
}

// Invite is an outstanding or historical offer for an address to join a calendar.
// A single row per (CalendarID, DestinationAddress) is reused across re-invites.
// swagger:model Invite
type Invite struct {
	ID                 string       `json:"id"`
	CalendarID         string       `json:"calendar_id"`
	DestinationAddress string       `json:"destination_address"`
	InvitedBy          string       `json:"invited_by"`
	TokenHash          string       `json:"-"`
	ExpiresAt          time.Time    `json:"expires_at"`
	Status             InviteStatus `json:"status"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// NormalizeAddress trims and lower-cases an email-like address.
func NormalizeAddress(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsExpired reports whether a pending invite is past its expiry at now.
func (i *Invite) IsExpired(now time.Time) bool {
	return i.Status == InviteStatusPending && now.After(i.ExpiresAt)
}

// ExpireIfNeeded moves a time-expired pending invite to EXPIRED and clears its
// token hash. It returns true when the invite changed. Expiring a row that is not
// pending is a no-op, which keeps the sweep idempotent.
func (i *Invite) ExpireIfNeeded(now time.Time) bool {
	if !i.IsExpired(now) {
		return false
	}
	i.Status = InviteStatusExpired
	i.TokenHash = ""
	i.UpdatedAt = now
	return true
}

// Rotate puts the invite back to PENDING under a fresh token hash and expiry.
func (i *Invite) Rotate(tokenHash, invitedBy string, expiresAt, now time.Time) {
	i.Status = InviteStatusPending
	i.TokenHash = tokenHash
	i.InvitedBy = invitedBy
	i.ExpiresAt = expiresAt
	i.UpdatedAt = now
}

// Accept marks the invite consumed.
func (i *Invite) Accept(now time.Time) {
	i.Status = InviteStatusAccepted
	i.TokenHash = ""
	i.UpdatedAt = now
}

// Cancel marks the invite declined or revoked.
func (i *Invite) Cancel(now time.Time) {
	i.Status = InviteStatusCancelled
	i.TokenHash = ""
	i.UpdatedAt = now
}

// InviteTokenCodec generates opaque invite tokens and the one-way hash that is stored.
type InviteTokenCodec interface {
	Generate() (string, error)
	Hash(token string) string
}

// InviteRepository defines storage operations for invites. Lookups lock the row
// when called inside a transaction.
type InviteRepository interface {
	Create(ctx context.Context, inv *Invite) error
	Update(ctx context.Context, inv *Invite) error
	GetByCalendarAndAddress(ctx context.Context, calendarID, address string) (*Invite, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*Invite, error)
	ListByCalendarID(ctx context.Context, calendarID string, status InviteStatus, params PaginationParams) ([]*Invite, int, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*Invite, error)
}

// InviteService is the invite lifecycle engine.
type InviteService interface {
	InviteMember(ctx context.Context, calendarID, address, callerID string) (token string, err error)
	ResendInvite(ctx context.Context, calendarID, address, callerID string) (token string, err error)
	RevokeInvite(ctx context.Context, calendarID, address, callerID string) error
	AcceptInvite(ctx context.Context, token, callerID string) error
	DeclineInvite(ctx context.Context, token, callerID string) error
	ListInvites(ctx context.Context, calendarID, callerID string, status InviteStatus, params PaginationParams) ([]*Invite, int, error)
}
