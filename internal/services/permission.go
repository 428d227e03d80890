package services

import (
	"fmt"

	"collabcalendar/internal/domain"
)

// authorizeCalendar checks that callerID may act on calendar with at least the
// given role. The owner always passes; anyone else needs a membership ranked at
// or above required. membership may be nil when the caller is not a member.
func authorizeCalendar(callerID string, calendar *domain.Calendar, membership *domain.Member, required domain.MemberRole) error {
	if calendar == nil {
		return fmt.Errorf("%w: calendar", domain.ErrNotFound)
	}
	if callerID != "" && calendar.OwnerID == callerID {
		return nil
	}
	if membership != nil && membership.CalendarID == calendar.ID && membership.Role >= required {
		return nil
	}
	return fmt.Errorf("%w: %s role or higher required on calendar", domain.ErrPermissionDenied, required)
}
