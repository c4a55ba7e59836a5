package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		creditsDeductedTotal,
		creditDenialsTotal,
	)
}

var (
	creditsDeductedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_deducted_total",
			Help: "Total credits deducted through the gate.",
		},
	)

	creditDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_denials_total",
			Help: "Gate denials by reason.",
		},
		[]string{"reason"}, // 'no_active_subscription', 'insufficient_credits'
	)
)

func AddCreditsDeducted(amount int64) {
	creditsDeductedTotal.Add(float64(amount))
}

func IncCreditDenial(reason string) {
	creditDenialsTotal.WithLabelValues(norm(reason)).Inc()
}
