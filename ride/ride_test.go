package ride

import (
	"testing"
	"time"
)

func TestRide_Minutes(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	r := Ride{StartedAt: now.Add(-17 * time.Minute)}
	if got := r.Minutes(now); got != 17 {
		t.Errorf("Minutes() = %d, want 17", got)
	}

	// Partial minutes bill as a whole minute.
	r = Ride{StartedAt: now.Add(-17*time.Minute - 10*time.Second)}
	if got := r.Minutes(now); got != 18 {
		t.Errorf("Minutes() = %d, want 18", got)
	}
}

func TestRide_HelmetStillInUse(t *testing.T) {
	if (Ride{}).HelmetStillInUse() {
		t.Errorf("ride without helmet must not report in use")
	}

	for status, want := range map[HelmetStatus]bool{
		HelmetInUse:      true,
		HelmetReady:      false,
		HelmetReturned:   false,
		HelmetLostPaid:   false,
		HelmetLostUnpaid: false,
		HelmetNotWorking: false,
	} {
		s := status
		if got := (Ride{Helmet: &s}).HelmetStillInUse(); got != want {
			t.Errorf("HelmetStillInUse(%q) = %v, want %v", status, got, want)
		}
	}
}
