package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordUserCreated()
	m.RecordAdWatched("regular")
	m.RecordAdWatched("regular")
	m.RecordAdWatched("bonus")
	m.RecordReferralCreated()
	m.RecordReferralBonus()
	m.RecordWithdrawal("bKash")
	m.RecordWithdrawalRejected("insufficient_balance")
	m.RecordRateLimited()
	m.UpdateDBConnections(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsersCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AdsWatched.WithLabelValues("regular")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdsWatched.WithLabelValues("bonus")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReferralsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReferralBonuses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WithdrawalsRequested.WithLabelValues("bKash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WithdrawalRejections.WithLabelValues("insufficient_balance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DBConnections))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordUserCreated()
		m.RecordAdWatched("regular")
		m.RecordReferralCreated()
		m.RecordReferralBonus()
		m.RecordWithdrawal("bKash")
		m.RecordWithdrawalRejected("below_minimum")
		m.RecordRateLimited()
		m.UpdateDBConnections(1)
	})
}

func TestMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/users/:userId", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"success": true})
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/U1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/users/:userId", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/boom", "500")))
}
