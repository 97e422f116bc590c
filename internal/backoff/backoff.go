// Package backoff computes the reconnect delay schedule: the delay for
// attempt n is base doubled n-1 times, clamped at a ceiling.
package backoff

import "time"

type Schedule struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before reconnection attempt n (1-based).
func (s Schedule) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// past 32 doublings the shift would overflow; the ceiling applies anyway
	if attempt-1 >= 32 {
		return s.clamp(s.Max)
	}
	d := s.Base << uint(attempt-1)
	return s.clamp(d)
}

func (s Schedule) clamp(d time.Duration) time.Duration {
	if s.Max > 0 && (d > s.Max || d <= 0) {
		return s.Max
	}
	return d
}
