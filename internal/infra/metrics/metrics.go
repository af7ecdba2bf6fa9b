package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leadsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_ingested_total",
			Help: "Total number of leads stored by intake, by resulting state",
		},
		[]string{"state"},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lead_analysis_duration_seconds",
			Help:    "Duration of classifier calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	analysisFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_analysis_failures_total",
			Help: "Total number of failed classifier calls",
		},
	)

	purchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_purchases_total",
			Help: "Total number of purchase attempts, by result",
		},
		[]string{"result"},
	)

	notificationDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Total number of notification deliveries, by channel and status",
		},
		[]string{"channel", "status"},
	)
)

func RecordLeadIngested(state string) {
	leadsIngested.WithLabelValues(state).Inc()
}

func ObserveAnalysis(d time.Duration, err error) {
	analysisDuration.Observe(d.Seconds())
	if err != nil {
		analysisFailures.Inc()
	}
}

func RecordPurchase(result string) {
	purchases.WithLabelValues(result).Inc()
}

func RecordDelivery(channel string, err error) {
	status := "delivered"
	if err != nil {
		status = "failed"
	}
	notificationDeliveries.WithLabelValues(channel, status).Inc()
}
