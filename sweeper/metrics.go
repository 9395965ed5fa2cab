package sweeper

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	RidesEvaluated    prometheus.Counter
	RidesTerminated   prometheus.Counter
	RidesReconciled   prometheus.Counter
	RidesSkipped      prometheus.Counter
	FaresCollected    prometheus.Counter
	FaresMissed       prometheus.Counter
	HelmetSettlements *prometheus.CounterVec
	PassDuration      prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RidesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_rides_evaluated_total",
			Help: "Candidate rides examined across all passes",
		}),
		RidesTerminated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_rides_terminated_total",
			Help: "Rides force-closed by the sweeper",
		}),
		RidesReconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_rides_reconciled_total",
			Help: "Stale duplicate rides deleted without billing",
		}),
		RidesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_rides_skipped_total",
			Help: "Candidate rides left open (ineligible, missing user/phone/telemetry)",
		}),
		FaresCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_fares_collected_total",
			Help: "Terminations with a successful fare charge",
		}),
		FaresMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_fares_missed_total",
			Help: "Terminations closed with zero collected fare",
		}),
		HelmetSettlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweeper_helmet_settlements_total",
			Help: "Helmet loss settlements by outcome",
		}, []string{"outcome"}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sweeper_pass_duration_seconds",
			Help:    "Wall time of one evaluation pass",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.RidesEvaluated, m.RidesTerminated, m.RidesReconciled, m.RidesSkipped,
		m.FaresCollected, m.FaresMissed, m.HelmetSettlements, m.PassDuration,
	)
	return m
}
