package replay

import "time"

// TimeService virtualizes "now" for hooks running under a session.
//
// Hooks must read time through the session's TimeService rather than
// calling time.Now directly; that is what makes a captured run
// reproducible offline.
type TimeService interface {
	// Now returns the current instant in UTC.
	Now() time.Time
}

// SystemTime is the real-clock TimeService used by production and
// recording sessions.
type SystemTime struct{}

// Now returns the wall-clock time in UTC.
func (SystemTime) Now() time.Time {
	return time.Now().UTC()
}

// FrozenTime returns one fixed instant on every call for the lifetime of
// its session. Used by replaying sessions to reproduce recorded time.
type FrozenTime struct {
	at time.Time
}

// NewFrozenTime creates a TimeService frozen at the given instant.
// The instant is normalized to UTC so manifests serialize consistently.
func NewFrozenTime(at time.Time) *FrozenTime {
	return &FrozenTime{at: at.UTC()}
}

// Now returns the frozen instant.
func (f *FrozenTime) Now() time.Time {
	return f.at
}
