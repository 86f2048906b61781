// Package interval provides pure arithmetic over half-open [start, end)
// time spans. Every engine builds on these three operations.
package interval

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidInterval is returned when an interval's end does not come
// strictly after its start. Callers validate before reaching this layer, so
// seeing it indicates a bug upstream.
var ErrInvalidInterval = errors.New("interval: end must be after start")

// Span is a half-open [Start, End) interval.
type Span struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the span's end comes strictly after its start.
func (s Span) Valid() bool {
	return s.End.After(s.Start)
}

// DurationMinutes returns the span's length rounded to whole minutes.
func DurationMinutes(s Span) (int, error) {
	if !s.Valid() {
		return 0, ErrInvalidInterval
	}
	return int(math.Round(s.End.Sub(s.Start).Minutes())), nil
}

// Overlaps reports whether a and b intersect. Touching endpoints do not
// overlap: [9:00,12:00) and [12:00,13:00) are disjoint.
func Overlaps(a, b Span) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether inner lies fully within outer, endpoints
// inclusive on both sides.
func Contains(outer, inner Span) bool {
	return !inner.Start.Before(outer.Start) && !inner.End.After(outer.End)
}
