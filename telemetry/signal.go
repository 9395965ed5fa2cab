// Package telemetry summarizes recent device status reports into movement
// signals. The sweeper consumes the summary; it never reads raw reports.
package telemetry

import "time"

// Signal is a 15-minute aggregation bucket over a kickboard's status rows.
type Signal struct {
	Bucket time.Time `db:"bucket"`
	// DisabledFraction is 0 when the device reported itself enabled for
	// the whole bucket and 1 when it was disabled throughout.
	DisabledFraction float64 `db:"disabled_fraction"`
	// LatStdDev/LngStdDev are the position dispersion within the bucket,
	// 0 when stationary. Available for the predicate but excluded from
	// the decision unless stationarity checking is switched on.
	LatStdDev float64 `db:"lat_stddev"`
	LngStdDev float64 `db:"lng_stddev"`
	AvgSpeed  float64 `db:"avg_speed"`
}

// Stationary reports whether GPS dispersion within the bucket was zero.
func (s Signal) Stationary() bool {
	return s.LatStdDev == 0 && s.LngStdDev == 0
}
