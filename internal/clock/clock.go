package clock

import "time"

// Clock is the single time source for deadline computation, injected so
// tests can drive it.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func Real() Clock { return realClock{} }

// Fake is a manually advanced clock for tests.
type Fake struct {
	Current time.Time
}

func (f *Fake) Now() time.Time { return f.Current }

func (f *Fake) Advance(d time.Duration) { f.Current = f.Current.Add(d) }

// Elapsed returns the time spent since start.
func Elapsed(c Clock, start time.Time) time.Duration {
	return c.Now().Sub(start)
}

// Remaining returns the time left until deadline; negative once expired.
func Remaining(c Clock, deadline time.Time) time.Duration {
	return deadline.Sub(c.Now())
}

// Expired reports whether a nullable deadline has elapsed.
func Expired(c Clock, deadline *time.Time) bool {
	if deadline == nil {
		return false
	}
	return !c.Now().Before(*deadline)
}
