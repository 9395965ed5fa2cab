package sweeper

import (
	"time"

	"github.com/openkick/ridesweeper/ride"
	"github.com/openkick/ridesweeper/telemetry"
)

// Predicate decides whether an open ride may be force-terminated.
type Predicate struct {
	Mode              Mode
	MaxRideAge        time.Duration
	RequireStationary bool
}

// Eligible applies the configured eligibility route. In inactivity mode a
// nil signal (no telemetry for the device) is never eligible; the caller
// logs and skips.
func (p Predicate) Eligible(r ride.Ride, sig *telemetry.Signal, now time.Time) bool {
	switch p.Mode {
	case ModeDuration:
		return now.Sub(r.StartedAt) >= p.MaxRideAge
	case ModeInactivity:
		if sig == nil {
			return false
		}
		if sig.DisabledFraction != 0 || sig.AvgSpeed != 0 {
			return false
		}
		if p.RequireStationary && !sig.Stationary() {
			return false
		}
		return true
	}
	return false
}
