package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons recorded by RegistrationRejected.
const (
	ReasonValidation = "validation"
	ReasonDuplicate  = "duplicate"
	ReasonSchema     = "schema"
	ReasonInternal   = "internal"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsCreated  prometheus.Counter
	RegistrationsRejected *prometheus.CounterVec
	AvailabilityLookups   *prometheus.CounterVec
	RegisterDuration      prometheus.Histogram
	HTTPRequestDuration   *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "signup_registrations_created_total",
			Help: "Total number of profiles registered",
		}),
		RegistrationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_registrations_rejected_total",
			Help: "Registrations rejected, by reason",
		}, []string{"reason"}),
		AvailabilityLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_availability_lookups_total",
			Help: "Availability lookups, by field and result",
		}, []string{"field", "available"}),
		RegisterDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "signup_register_duration_seconds",
			Help:    "Duration of Register operations including credential hashing",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signup_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// IncrementRegistrations records a successful registration.
func (m *Metrics) IncrementRegistrations() {
	m.RegistrationsCreated.Inc()
}

// RegistrationRejected records a rejected registration.
func (m *Metrics) RegistrationRejected(reason string) {
	m.RegistrationsRejected.WithLabelValues(reason).Inc()
}

// ObserveAvailability records one availability answer.
func (m *Metrics) ObserveAvailability(field string, available bool) {
	m.AvailabilityLookups.WithLabelValues(field, strconv.FormatBool(available)).Inc()
}

// ObserveRegister records the duration of a Register call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}
