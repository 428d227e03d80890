package domain

import (
	"context"
	"time"
)

// Bus topics. Payloads are flat, fully populated records serialized as JSON.
const (
	TopicInviteCreated = "invite.created"
	TopicEventCreated  = "event.created"
	TopicTaskCreated   = "task.created"
	TopicMemberJoined  = "member.joined"
	TopicMemberLeft    = "member.left"
)

// EventPublisher emits an event onto a named topic. Delivery is fire-and-forget
// and at-least-once; callers must not wait for consumers.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// TxPublisher is an EventPublisher whose writes join the transaction carried by
// ctx. Events published through it commit or roll back with the state change that
// produced them.
type TxPublisher interface {
	EventPublisher
	JoinsTx() bool
}

// InviteCreated is published when an invite is created or rotated. It carries the
// plaintext token so the notifier can build the accept and decline links.
type InviteCreated struct {
	InviteID           string    `json:"invite_id"`
	CalendarID         string    `json:"calendar_id"`
	CalendarName       string    `json:"calendar_name"`
	InviterAddress     string    `json:"inviter_address"`
	DestinationAddress string    `json:"destination_address"`
	PlaintextToken     string    `json:"plaintext_token"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// EventCreated is published by the calendar service when a calendar event is added.
type EventCreated struct {
	EventID      string    `json:"event_id"`
	CalendarID   string    `json:"calendar_id"`
	CalendarName string    `json:"calendar_name"`
	Title        string    `json:"title"`
	CreatedBy    string    `json:"created_by"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
}

// TaskCreated is published by the calendar service when a task is added.
type TaskCreated struct {
	TaskID       string    `json:"task_id"`
	CalendarID   string    `json:"calendar_id"`
	CalendarName string    `json:"calendar_name"`
	Title        string    `json:"title"`
	CreatedBy    string    `json:"created_by"`
	DueAt        time.Time `json:"due_at"`
}

// MemberJoined is published after an invite is accepted by a new member.
type MemberJoined struct {
	CalendarID   string    `json:"calendar_id"`
	CalendarName string    `json:"calendar_name"`
	UserID       string    `json:"user_id"`
	Address      string    `json:"address"`
	Role         string    `json:"role"`
	JoinedAt     time.Time `json:"joined_at"`
}

// MemberLeft is published by the membership service when a member leaves.
type MemberLeft struct {
	CalendarID   string    `json:"calendar_id"`
	CalendarName string    `json:"calendar_name"`
	UserID       string    `json:"user_id"`
	Address      string    `json:"address"`
	LeftAt       time.Time `json:"left_at"`
}

// Transactor runs fn inside one transaction. The transaction travels in the
// context handed to fn; repositories called with that context join it. A non-nil
// error from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
