package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the deal workflow.
type Metrics struct {
	// Deals created by kind and whether ownership moved at creation
	DealsCreated *prometheus.CounterVec

	// Lifecycle transitions by target status
	Transitions *prometheus.CounterVec

	// Ownership ledger entries written by deals, by transfer kind
	OwnershipTransfers *prometheus.CounterVec

	// Per-item transfers skipped because the deal already moved the asset
	TransfersSkipped prometheus.Counter

	// Creation rejected by eligibility, by reason
	EligibilityDenials *prometheus.CounterVec

	DecisionLatency prometheus.Histogram
}

// New creates a new Metrics instance with all deal metrics registered.
func New() *Metrics {
	return &Metrics{
		DealsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_deals_created_total",
			Help: "Total deals created by kind and immediacy",
		}, []string{"kind", "immediate"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_deal_transitions_total",
			Help: "Total deal lifecycle transitions by target status",
		}, []string{"status"}),

		OwnershipTransfers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_ownership_transfers_total",
			Help: "Total ownership ledger entries written by deals",
		}, []string{"kind"}),

		TransfersSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "provenance_ownership_transfers_skipped_total",
			Help: "Deal items whose ownership had already moved for the same deal",
		}),

		EligibilityDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_deal_eligibility_denials_total",
			Help: "Deal creations rejected by eligibility rules, by reason",
		}, []string{"reason"}),

		DecisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "provenance_deal_decision_duration_seconds",
			Help:    "Duration of approve/reject/complete operations including ledger writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementCreated(kind string, immediate bool) {
	if m != nil {
		label := "false"
		if immediate {
			label = "true"
		}
		m.DealsCreated.WithLabelValues(kind, label).Inc()
	}
}

func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementTransfer(kind string) {
	if m != nil {
		m.OwnershipTransfers.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementTransferSkipped() {
	if m != nil {
		m.TransfersSkipped.Inc()
	}
}

func (m *Metrics) IncrementEligibilityDenial(reason string) {
	if m != nil {
		m.EligibilityDenials.WithLabelValues(reason).Inc()
	}
}

// ObserveDecision records the duration of a decision. Call with time.Now()
// at the start of the operation.
func (m *Metrics) ObserveDecision(start time.Time) {
	if m != nil {
		m.DecisionLatency.Observe(time.Since(start).Seconds())
	}
}
