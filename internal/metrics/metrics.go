package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. It also serves as the attempt lifecycle observer.
type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	attemptsStarted *prometheus.CounterVec
	attemptsGraded  *prometheus.CounterVec
	attemptsExpired prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		attemptsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_started_total",
				Help: "Start requests by whether a new attempt was created",
			},
			[]string{"created"},
		),
		attemptsGraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_graded_total",
				Help: "Graded attempts by outcome",
			},
			[]string{"passed"},
		),
		attemptsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_timed_out_total",
			Help: "Attempts closed by the timeout sweep",
		}),
	}
	reg.MustRegister(m.RequestCounter, m.RequestDuration, m.attemptsStarted, m.attemptsGraded, m.attemptsExpired)
	return m
}

func (m *Metrics) AttemptStarted(created bool) {
	m.attemptsStarted.WithLabelValues(strconv.FormatBool(created)).Inc()
}

func (m *Metrics) AttemptGraded(passed bool) {
	m.attemptsGraded.WithLabelValues(strconv.FormatBool(passed)).Inc()
}

func (m *Metrics) AttemptsExpired(n int) {
	m.attemptsExpired.Add(float64(n))
}
