package scan

import "time"

// Limiter is the explicit cooldown state between scans. It replaces
// ambient last-scan timestamps: callers inject it and ask how long to
// wait.
type Limiter struct {
	cooldown time.Duration
	last     time.Time
}

func NewLimiter(cooldown time.Duration) *Limiter {
	return &Limiter{cooldown: cooldown}
}

// Remaining returns how much of the cooldown is left at now. It is zero
// before the first Mark and never negative.
func (l *Limiter) Remaining(now time.Time) time.Duration {
	if l.last.IsZero() {
		return 0
	}
	rem := l.cooldown - now.Sub(l.last)
	if rem < 0 {
		return 0
	}
	return rem
}

// Mark records that a scan started at now.
func (l *Limiter) Mark(now time.Time) {
	l.last = now
}
