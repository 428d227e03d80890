package domain

import (
	"context"
	"strings"
	"time"
)

// Calendar is the owning resource of invites and members. It is managed by the
// calendar service; this module only reads it.
// swagger:model Calendar
type Calendar struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
}

// CalendarRepository looks up calendars.
type CalendarRepository interface {
	GetByID(ctx context.Context, id string) (*Calendar, error)
}

// MemberRole ranks membership privileges. Higher values include lower ones.
type MemberRole int

const (
	RoleUnknown MemberRole = iota
	RoleViewer
	RoleManager
	RoleOwner
)

func (r MemberRole) String() string {
	switch r {
	case RoleViewer:
		return "VIEWER"
	case RoleManager:
		return "MANAGER"
	case RoleOwner:
		return "OWNER"
	default:
		return "UNKNOWN"
	}
}

// ParseMemberRole maps a stored role label to a MemberRole.
func ParseMemberRole(label string) MemberRole {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "VIEWER":
		return RoleViewer
	case "MANAGER":
		return RoleManager
	case "OWNER":
		return RoleOwner
	default:
		return RoleUnknown
	}
}

// Member is a user's membership on a calendar.
// swagger:model Member
type Member struct {
	ID         string     `json:"id"`
	CalendarID string     `json:"calendar_id"`
	UserID     string     `json:"user_id"`
	Address    string     `json:"address"`
	Role       MemberRole `json:"role"`
	InvitedBy  string     `json:"invited_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// MemberRepository defines the membership operations this module needs.
type MemberRepository interface {
	ExistsByAddressAndCalendar(ctx context.Context, address, calendarID string) (bool, error)
	GetByAddressAndCalendar(ctx context.Context, address, calendarID string) (*Member, error)
	Create(ctx context.Context, m *Member) error
}
