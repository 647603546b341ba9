package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics records outcomes of stock-mutating operations.
type StockMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	alerts   *prometheus.GaugeVec
}

// NewStockMetrics registers the inventory metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_operation_duration_seconds",
		Help:    "Duration of stock-mutating operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_operation_success",
		Help: "Successful stock-mutating operations.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_operation_failure",
		Help: "Failed stock-mutating operations.",
	}, []string{"operation"})
	alerts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stock_active_alerts",
		Help: "Active alerts per unit after the latest reconciliation.",
	}, []string{"unit", "type"})
	reg.MustRegister(duration, success, failure, alerts)
	return &StockMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		alerts:   alerts,
	}
}

// ObserveDuration records the duration for the named operation.
func (s *StockMetrics) ObserveDuration(operation string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (s *StockMetrics) IncSuccess(operation string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (s *StockMetrics) IncFailure(operation string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// SetActiveAlerts records the number of open alerts for a unit and alert type.
func (s *StockMetrics) SetActiveAlerts(unit, alertType string, count int) {
	if s == nil || s.alerts == nil {
		return
	}
	s.alerts.WithLabelValues(normalizeLabel(unit), normalizeLabel(alertType)).Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
