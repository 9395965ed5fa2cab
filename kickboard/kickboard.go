// Package kickboard
package kickboard

import (
	"database/sql"
	"time"
)

// Mode is the device operability state. The sweeper reads it but never
// advances it; only the rentable flag is flipped back on stop.
type Mode int

const (
	ModeReady Mode = iota
	ModeInUse
	ModeBroken
	ModeCollected
	ModeUnregistered
	ModeDisabled
)

// Kickboard represents a rentable device.
type Kickboard struct {
	// ID is the internal device identifier transmitted by the IoT unit.
	ID string `db:"id"`
	// Code is the human-facing label printed on the deck (e.g. "DE4X").
	Code string `db:"code"`

	FranchiseID string `db:"franchise_id"`
	RegionID    string `db:"region_id"`

	Mode    Mode `db:"mode"`
	CanRent bool `db:"can_rent"`

	DisconnectedAt sql.NullTime `db:"disconnected_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}
