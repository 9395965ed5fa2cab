package sweeper

import "time"

// Mode selects how candidate rides become eligible for termination.
type Mode string

const (
	// ModeDuration terminates rides purely on age. Used for the 3-hour
	// over-duration sweep and, with a one-month age, for cold
	// reconciliation of long-abandoned records.
	ModeDuration Mode = "duration"
	// ModeInactivity terminates short-idle rides whose latest telemetry
	// bucket shows a continuously enabled, motionless device.
	ModeInactivity Mode = "inactivity"
)

type Config struct {
	Mode Mode

	// MaxRideAge is the age threshold for ModeDuration.
	MaxRideAge time.Duration
	// IdleWindow is both the stale-ride cutoff and the telemetry lookback
	// for ModeInactivity.
	IdleWindow time.Duration

	// HelmetLossFee is charged when a ride ends with its helmet unreturned.
	HelmetLossFee int

	// OnlyUserID restricts a pass to a single test subject when non-empty.
	OnlyUserID string

	// HaltPassOnMissingPhone reproduces the legacy behavior of abandoning
	// the rest of a pass when one user's phone cannot be resolved. Default
	// is to skip just that ride.
	HaltPassOnMissingPhone bool

	// RequireStationary additionally demands zero GPS dispersion in the
	// inactivity decision. Off by default: GPS drift on parked devices
	// made this guard too strict in the field.
	RequireStationary bool
}

// Cutoff is the started-before threshold for fetching candidate rides.
func (c Config) Cutoff(now time.Time) time.Time {
	if c.Mode == ModeDuration {
		return now.Add(-c.MaxRideAge)
	}
	return now.Add(-c.IdleWindow)
}
