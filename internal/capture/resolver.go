package capture

import (
	"fmt"
	"time"
)

// RetentionWindow is how far back the ARK archive keeps index windows.
// Requests older than this are rejected up front instead of surfacing as a
// confusing remote 404.
const RetentionWindow = 14 * 24 * time.Hour

const localTimeLayout = "01/02/2006 15:04"

// Resolver turns a requested station-local start time into a validated UTC
// anchor. It has no side effects; behavior depends only on the input and the
// injected clock.
type Resolver struct {
	now func() time.Time
}

// NewResolver returns a resolver using the real clock. Pass a fixed clock
// with NewResolverAt in tests.
func NewResolver() *Resolver {
	return NewResolverAt(time.Now)
}

// NewResolverAt returns a resolver that reads "now" from the given function.
func NewResolverAt(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Resolve validates req's date and time against the station profile's
// timezone and returns the capture anchor.
//
// Failure modes: ErrInvalidTimeFormat, ErrUnalignedTime, ErrFutureTime,
// ErrRetentionExceeded, or a profile timezone error.
func (r *Resolver) Resolve(req ShowRequest, profile StationProfile) (Anchor, error) {
	loc, err := profile.Location()
	if err != nil {
		return Anchor{}, err
	}

	local, err := time.ParseInLocation(localTimeLayout, req.Date+" "+req.Time, loc)
	if err != nil {
		return Anchor{}, fmt.Errorf("%w: %q %q", ErrInvalidTimeFormat, req.Date, req.Time)
	}

	if local.Minute()%5 != 0 {
		return Anchor{}, fmt.Errorf("%w: got :%02d", ErrUnalignedTime, local.Minute())
	}

	now := r.now()
	instant := local.UTC()
	if instant.After(now) {
		return Anchor{}, fmt.Errorf("%w: %s", ErrFutureTime, instant.Format(time.RFC3339))
	}
	if instant.Before(now.Add(-RetentionWindow)) {
		return Anchor{}, fmt.Errorf("%w: %s is more than %d days old",
			ErrRetentionExceeded, instant.Format(time.RFC3339), int(RetentionWindow.Hours()/24))
	}

	return Anchor{t: instant}, nil
}
