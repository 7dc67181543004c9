package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on their own registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	SubmissionsFinalized *prometheus.CounterVec
	Rewards              *prometheus.CounterVec
	QuizScores           prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
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
		SubmissionsFinalized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessment_submissions_finalized_total",
				Help: "Submissions moved to submitted, by assessment kind",
			},
			[]string{"kind"},
		),
		Rewards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessment_rewards_total",
				Help: "Reward issuance outcomes, by assessment kind and status",
			},
			[]string{"kind", "status"},
		),
		QuizScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assessment_quiz_score_percent",
			Help:    "Distribution of quiz scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDuration,
		m.SubmissionsFinalized,
		m.Rewards,
		m.QuizScores,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveFinalized(kind string) {
	if m == nil {
		return
	}
	m.SubmissionsFinalized.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveReward(kind, status string) {
	if m == nil {
		return
	}
	m.Rewards.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) ObserveQuizScore(score int) {
	if m == nil {
		return
	}
	m.QuizScores.Observe(float64(score))
}

// Middleware records request count and duration per route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
