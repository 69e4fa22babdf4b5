package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedEcho(t *testing.T, trusted []string, limit int) *echo.Echo {
	t.Helper()

	extractor, err := ClientIPExtractor(trusted)
	require.NoError(t, err)

	rl := NewRateLimiter(limit, 15*time.Minute)
	t.Cleanup(rl.Stop)

	e := echo.New()
	e.IPExtractor = extractor
	e.Use(RateLimit(rl, nil))
	e.GET("/api/users/:userId", func(c echo.Context) error {
		return c.String(http.StatusOK, c.RealIP())
	})
	return e
}

func serveFrom(e *echo.Echo, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/users/U1", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_SpoofedForwardedForDoesNotResetAllowance(t *testing.T) {
	e := newLimitedEcho(t, nil, 3)

	limited := 0
	for i := 0; i < 10; i++ {
		rec := serveFrom(e, "203.0.113.9:4000", fmt.Sprintf("198.51.100.%d", i))
		if rec.Code == http.StatusTooManyRequests {
			limited++
		} else {
			assert.Equal(t, "203.0.113.9", rec.Body.String())
		}
	}
	assert.Equal(t, 7, limited)
}

func TestRateLimit_TrustedProxyForwardsClientAddress(t *testing.T) {
	e := newLimitedEcho(t, []string{"10.0.0.0/8"}, 1)

	rec := serveFrom(e, "10.1.2.3:4000", "198.51.100.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "198.51.100.1", rec.Body.String())

	assert.Equal(t, http.StatusOK, serveFrom(e, "10.1.2.3:4000", "198.51.100.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(e, "10.1.2.3:4000", "198.51.100.1").Code)
}

func TestRateLimit_UntrustedPeerForwardedForIgnored(t *testing.T) {
	e := newLimitedEcho(t, []string{"10.0.0.5"}, 1)

	assert.Equal(t, http.StatusOK, serveFrom(e, "203.0.113.9:4000", "198.51.100.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(e, "203.0.113.9:4000", "198.51.100.2").Code)
}

func TestClientIPExtractor_InvalidRange(t *testing.T) {
	_, err := ClientIPExtractor([]string{"10.0.0.0/33"})
	assert.Error(t, err)

	_, err = ClientIPExtractor([]string{"proxy.internal"})
	assert.Error(t, err)
}
