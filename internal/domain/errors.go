package domain

import "errors"

// Sentinel errors shared by services and repositories. Services wrap them with a
// reason (fmt.Errorf("%w: ...", ErrX)) so callers can match with errors.Is.
var (
	// ErrInvalidArgument is returned for bad input (blank address, malformed token).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated is returned when the caller identity is missing or cannot be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied is returned for insufficient role or an address mismatch.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound is returned when an invite, calendar or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrFailedPrecondition is returned when an invite is not in the state the transition needs.
	ErrFailedPrecondition = errors.New("failed precondition")

	// ErrTransientDelivery marks a mail transport failure worth retrying.
	ErrTransientDelivery = errors.New("transient delivery failure")
	// ErrPermanentDelivery marks a delivery that will not succeed: rejected by the
	// transport or out of retry budget.
	ErrPermanentDelivery = errors.New("permanent delivery failure")

	// ErrDuplicate is returned by repositories on a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrAlreadyMember is returned when adding a member that already exists on the calendar.
	ErrAlreadyMember = errors.New("already a member")
)
