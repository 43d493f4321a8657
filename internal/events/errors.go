package events

import "errors"

var (
	// ErrNotFound means no event is bound to the given identifier.
	ErrNotFound = errors.New("event not found")

	// ErrPermissionDenied means the requesting user may not delete the event.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDateInPast rejects event creation before any side effect happens.
	ErrDateInPast = errors.New("event date is in the past")

	// ErrEventBusy means the per-event lease could not be acquired in time.
	ErrEventBusy = errors.New("event is busy, try again")
)
