package clock

import "time"

// Clock supplies creation timestamps. Entities are immutable, so the time
// observed at creation is the one that persists; tests inject a FakeClock
// for reproducible records.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
