package clock

import "time"

// DefaultZone is the civil timezone every timestamp is normalized to.
const DefaultZone = "America/Lima"

// Clock supplies the current time in a fixed civil timezone. Injected into
// every timestamped operation so tests can pin time.
type Clock interface {
	Now() time.Time
}

type zoneClock struct {
	loc *time.Location
}

// New builds a Clock for the named zone. When the zone database does not
// know the name, it falls back to a fixed UTC-5 offset, which matches Lima
// year round (no daylight saving).
func New(zone string) Clock {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.FixedZone("-05", -5*60*60)
	}
	return &zoneClock{loc: loc}
}

func (c *zoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fixed is a Clock pinned to a settable instant, for deterministic tests.
type Fixed struct {
	now time.Time
}

// NewFixed pins the clock at the given instant.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

func (f *Fixed) Now() time.Time {
	return f.now
}

// Advance moves the pinned instant forward.
func (f *Fixed) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Set replaces the pinned instant.
func (f *Fixed) Set(t time.Time) {
	f.now = t
}
