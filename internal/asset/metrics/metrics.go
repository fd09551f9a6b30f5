package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the asset registry.
type Metrics struct {
	AssetsRegistered prometheus.Counter

	// Status changes by target status
	StatusChanges *prometheus.CounterVec

	// Registrations rejected by eligibility, by reason
	RegistrationDenials *prometheus.CounterVec

	// Verification lookups by cache outcome: hit, miss, bypass
	Verifications *prometheus.CounterVec
}

// New creates a new Metrics instance with all asset metrics registered.
func New() *Metrics {
	return &Metrics{
		AssetsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "provenance_assets_registered_total",
			Help: "Total assets registered",
		}),
		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_asset_status_changes_total",
			Help: "Total asset status changes by target status",
		}, []string{"status"}),
		RegistrationDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_asset_registration_denials_total",
			Help: "Asset registrations rejected by eligibility rules, by reason",
		}, []string{"reason"}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_asset_verifications_total",
			Help: "Public serial verifications by cache outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementRegistered() {
	if m != nil {
		m.AssetsRegistered.Inc()
	}
}

func (m *Metrics) IncrementStatusChange(status string) {
	if m != nil {
		m.StatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementRegistrationDenial(reason string) {
	if m != nil {
		m.RegistrationDenials.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementVerification(outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome).Inc()
	}
}
