// Package user holds rider accounts and their stored payment instruments.
package user

import (
	"database/sql"

	"github.com/google/uuid"
)

type User struct {
	ID    string         `db:"id"`
	Name  string         `db:"name"`
	Phone sql.NullString `db:"phone"`
	// CurrentRide is the ride the user object considers active. A ride
	// record whose id disagrees with this pointer is stale and gets
	// reconciled instead of billed.
	CurrentRide *uuid.UUID `db:"current_ride"`

	// BillingKeys are the user's recurring payment instruments in charge
	// order. Loaded alongside the user row.
	BillingKeys []BillingKey
}

// BillingKey is one stored recurring-payment instrument.
type BillingKey struct {
	Token    string `db:"token"`
	Label    string `db:"label"`
	Position int    `db:"position"`
}

// HasPhone reports whether the user has a resolvable phone number.
func (u User) HasPhone() bool {
	return u.Phone.Valid && u.Phone.String != ""
}
