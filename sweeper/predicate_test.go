package sweeper

import (
	"testing"
	"time"

	"github.com/openkick/ridesweeper/ride"
	"github.com/openkick/ridesweeper/telemetry"
)

func TestPredicate_Duration(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	p := Predicate{Mode: ModeDuration, MaxRideAge: 3 * time.Hour}

	young := ride.Ride{StartedAt: now.Add(-2 * time.Hour)}
	if p.Eligible(young, nil, now) {
		t.Errorf("2h ride must not be eligible under a 3h threshold")
	}

	old := ride.Ride{StartedAt: now.Add(-3 * time.Hour)}
	if !p.Eligible(old, nil, now) {
		t.Errorf("3h ride must be eligible under a 3h threshold")
	}
}

func TestPredicate_Inactivity(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	r := ride.Ride{StartedAt: now.Add(-20 * time.Minute)}

	tests := []struct {
		name              string
		sig               *telemetry.Signal
		requireStationary bool
		want              bool
	}{
		{
			name: "enabled and motionless",
			sig:  &telemetry.Signal{DisabledFraction: 0, AvgSpeed: 0},
			want: true,
		},
		{
			name: "no telemetry",
			sig:  nil,
			want: false,
		},
		{
			name: "device reported disabled part of the bucket",
			sig:  &telemetry.Signal{DisabledFraction: 0.25, AvgSpeed: 0},
			want: false,
		},
		{
			name: "still moving",
			sig:  &telemetry.Signal{DisabledFraction: 0, AvgSpeed: 4.2},
			want: false,
		},
		{
			name: "gps drift ignored by default",
			sig:  &telemetry.Signal{DisabledFraction: 0, AvgSpeed: 0, LatStdDev: 0.0004, LngStdDev: 0.0001},
			want: true,
		},
		{
			name:              "gps drift rejected when stationarity required",
			sig:               &telemetry.Signal{DisabledFraction: 0, AvgSpeed: 0, LatStdDev: 0.0004},
			requireStationary: true,
			want:              false,
		},
		{
			name:              "truly stationary passes the strict check",
			sig:               &telemetry.Signal{DisabledFraction: 0, AvgSpeed: 0},
			requireStationary: true,
			want:              true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Predicate{Mode: ModeInactivity, RequireStationary: tt.requireStationary}
			if got := p.Eligible(r, tt.sig, now); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
