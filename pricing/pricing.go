// Package pricing computes the tiered per-branch fare for a ride.
package pricing

// Branch is one franchise's fare table row.
type Branch struct {
	Branch        string `db:"branch"`
	StartCost     int    `db:"start_cost"`
	FreeMinutes   int    `db:"free_minutes"`
	PerMinuteCost int    `db:"per_minute_cost"`
}

// MaxFare caps a single ride's fare regardless of duration.
const MaxFare = 50000

// DefaultBranch is used when a ride's branch has no fare row.
const DefaultBranch = "default"

// Fare is the tiered fare: unlock cost, a free-time allowance, then a
// per-minute rate, capped at MaxFare.
func Fare(b Branch, minutes int) int {
	price := b.StartCost
	billable := minutes - b.FreeMinutes
	if billable <= 0 {
		return price
	}
	price += billable * b.PerMinuteCost
	if price >= MaxFare {
		return MaxFare
	}
	return price
}
