package component

import "time"

// Lifetime counts down while its storage ages. An entity whose lifetime has
// run out is removed by the expiry system.
type Lifetime struct {
	Remaining time.Duration
	Elapsed   time.Duration
}

// Age is called once per frame by the component storage.
func (l *Lifetime) Age(dt time.Duration) {
	l.Elapsed += dt
	l.Remaining -= dt
}

func (l *Lifetime) Expired() bool { return l.Remaining <= 0 }
