package capture

import "errors"

var (
	// ErrInvalidTimeFormat is returned when the requested date/time cannot be
	// parsed as a local calendar date and time.
	ErrInvalidTimeFormat = errors.New("invalid time format, expected MM/DD/YYYY HH:MM")

	// ErrUnalignedTime is returned when the requested start time is not on a
	// 5-minute boundary. The archive only publishes windows on that grid.
	ErrUnalignedTime = errors.New("start time must be a multiple of 5 minutes")

	// ErrFutureTime is returned when the requested start is after now.
	ErrFutureTime = errors.New("start time is in the future")

	// ErrRetentionExceeded is returned when the requested start is older than
	// the archive retention horizon.
	ErrRetentionExceeded = errors.New("start time is older than the archive retention window")

	// ErrInvalidDuration is returned for a show length outside 1..2 hours.
	ErrInvalidDuration = errors.New("show duration must be 1 or 2 hours")

	// ErrIndexNotFound is returned when an index window does not exist on the
	// remote, typically because it has not been published yet.
	ErrIndexNotFound = errors.New("index window not found, it may not be published yet")

	// ErrIndexEmpty is returned when an index window exists but carries no
	// usable segments. The remote does not backfill within a run, so this is
	// terminal.
	ErrIndexEmpty = errors.New("index window has no content")

	// ErrFetchIncomplete is returned when at least one segment download
	// failed. Cached segments are kept so the next run resumes.
	ErrFetchIncomplete = errors.New("one or more segment downloads failed")
)
