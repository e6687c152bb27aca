package entitlement

import (
	"time"

	"designkit/internal/types"
)

// The reset boundary is purely informational: the actual daily reset is an
// emergent property of date-keyed counter storage, not an action performed
// here. Nothing in this file mutates stored counters.

// NextReset returns the next midnight boundary after t, in t's location.
func NextReset(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}

// UntilNextReset returns the duration from t to the next local midnight.
func UntilNextReset(t time.Time) time.Duration {
	return NextReset(t).Sub(t)
}

// CountdownUntilReset returns the time remaining until the next local
// midnight as whole hours and minutes, truncated rather than rounded.
func CountdownUntilReset(t time.Time) types.Countdown {
	d := UntilNextReset(t)
	return types.Countdown{
		Hours:   int(d.Hours()),
		Minutes: int(d.Minutes()) % 60,
	}
}
