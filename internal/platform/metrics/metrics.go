package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LotsMinted         prometheus.Counter
	SalesCompleted     prometheus.Counter
	RentalsStarted     prometheus.Counter
	RentalsSettled     prometheus.Counter
	LotsReclaimed      prometheus.Counter
	RentersBlacklisted prometheus.Counter
	TransferFailures   prometheus.Counter

	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LotsMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parkspace_lots_minted_total",
			Help: "Total number of lots minted",
		}),
		SalesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parkspace_sales_completed_total",
			Help: "Total number of completed lot sales",
		}),
		RentalsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parkspace_rentals_started_total",
			Help: "Total number of rentals started",
		}),
		RentalsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parkspace_rentals_settled_total",
			Help: "Total number of rentals settled by the renter",
		}),
		LotsReclaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parkspace_lots_reclaimed_total",
			Help: "Total number of overdue lots reclaimed by lenders",
		}),
		RentersBlacklisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parkspace_renters_blacklisted_total",
			Help: "Total number of renters blacklisted for late returns",
		}),
		TransferFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parkspace_transfer_failures_total",
			Help: "Total number of operations aborted by a failed external transfer",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parkspace_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		}, []string{"route", "method"}),
	}
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(route, method string, d time.Duration) {
	m.RequestDuration.WithLabelValues(route, method).
		Observe(float64(d.Microseconds()) / 1000.0)
}
