package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, which keeps services usable without a registry.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimited         prometheus.Counter

	// Business metrics
	UsersCreated         prometheus.Counter
	AdsWatched           *prometheus.CounterVec
	ReferralsCreated     prometheus.Counter
	ReferralBonuses      prometheus.Counter
	WithdrawalsRequested *prometheus.CounterVec
	WithdrawalRejections *prometheus.CounterVec

	// Database metrics
	DBConnections prometheus.Gauge
}

// New creates a Metrics instance registered on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),

		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "users_created_total",
			Help: "Total number of users created on first fetch",
		}),
		AdsWatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_watched_total",
				Help: "Total number of rewarded ad views",
			},
			[]string{"type"}, // regular, bonus
		),
		ReferralsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "referrals_created_total",
			Help: "Total number of referral edges created",
		}),
		ReferralBonuses: factory.NewCounter(prometheus.CounterOpts{
			Name: "referral_bonuses_total",
			Help: "Total number of referral bonuses granted",
		}),
		WithdrawalsRequested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawals_requested_total",
				Help: "Total number of accepted withdrawal requests",
			},
			[]string{"method"},
		),
		WithdrawalRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawal_rejections_total",
				Help: "Total number of rejected withdrawal requests",
			},
			[]string{"reason"},
		),

		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of acquired database connections",
		}),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			status := strconv.Itoa(c.Response().Status)
			path := c.Path() // route pattern, e.g. /api/users/:userId
			if path == "" {
				path = "unmatched"
			}
			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, path, status).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// RecordRateLimited increments the rate limiter rejection counter
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// RecordUserCreated increments users created counter
func (m *Metrics) RecordUserCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

// RecordAdWatched increments the ad counter for adType
func (m *Metrics) RecordAdWatched(adType string) {
	if m == nil {
		return
	}
	m.AdsWatched.WithLabelValues(adType).Inc()
}

// RecordReferralCreated increments referrals created counter
func (m *Metrics) RecordReferralCreated() {
	if m == nil {
		return
	}
	m.ReferralsCreated.Inc()
}

// RecordReferralBonus increments referral bonuses counter
func (m *Metrics) RecordReferralBonus() {
	if m == nil {
		return
	}
	m.ReferralBonuses.Inc()
}

// RecordWithdrawal increments accepted withdrawals for method
func (m *Metrics) RecordWithdrawal(method string) {
	if m == nil {
		return
	}
	m.WithdrawalsRequested.WithLabelValues(method).Inc()
}

// RecordWithdrawalRejected increments rejected withdrawals for reason
func (m *Metrics) RecordWithdrawalRejected(reason string) {
	if m == nil {
		return
	}
	m.WithdrawalRejections.WithLabelValues(reason).Inc()
}

// UpdateDBConnections updates active database connections gauge
func (m *Metrics) UpdateDBConnections(count float64) {
	if m == nil {
		return
	}
	m.DBConnections.Set(count)
}
