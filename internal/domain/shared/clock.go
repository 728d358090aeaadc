package shared

import "time"

// Clock is the single time authority for the engine. Every component that
// needs "now" or the schedule time zone consults a Clock instead of reading
// time.Now ad hoc, so schedule arithmetic stays deterministic under test and
// the zone source (device-local vs server-canonical) remains an injection
// decision rather than a hard-coded choice.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// SystemClock is the production Clock backed by the OS clock.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock creates a SystemClock reporting instants in the given zone.
// A nil location falls back to the process-local zone.
func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return &SystemClock{loc: loc}
}

// Now returns the current instant in the clock's zone
func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location returns the zone used for schedule arithmetic
func (c *SystemClock) Location() *time.Location {
	return c.loc
}
