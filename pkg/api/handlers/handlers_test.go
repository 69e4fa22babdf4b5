package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	apierrors "github.com/sohojincome/backend/pkg/api/errors"
	apimiddleware "github.com/sohojincome/backend/pkg/api/middleware"
	"github.com/sohojincome/backend/pkg/logger"
	"github.com/sohojincome/backend/pkg/referral"
	"github.com/sohojincome/backend/pkg/testhelpers"
	"github.com/sohojincome/backend/pkg/users"
	"github.com/sohojincome/backend/pkg/withdrawal"
	"github.com/stretchr/testify/require"
)

// testAPI wires every handler over mock repositories, the way cmd/api wires
// them over PostgreSQL.
type testAPI struct {
	e           *echo.Echo
	users       *testhelpers.MockUserRepository
	referrals   *testhelpers.MockReferralRepository
	withdrawals *testhelpers.MockWithdrawalRepository
}

type fakeDB struct{ status string }

func (f fakeDB) Status(context.Context) string { return f.status }

func setupAPI(t *testing.T) *testAPI {
	t.Helper()

	log := logger.NewNop()
	errs := apierrors.NewResponder(log, false)

	userRepo := new(testhelpers.MockUserRepository)
	referralRepo := new(testhelpers.MockReferralRepository)
	withdrawalRepo := new(testhelpers.MockWithdrawalRepository)

	e := echo.New()
	e.HTTPErrorHandler = errs.HTTPErrorHandler
	RegisterRoutes(e, Handlers{
		Health:      NewHealthHandler(fakeDB{status: "connected"}, "test", "1.0.0"),
		Users:       NewUserHandler(users.NewService(userRepo, log, nil, users.Rewards{Ad: 2, BonusAd: 5}), errs),
		Referrals:   NewReferralHandler(referral.NewService(referralRepo, log, nil), errs),
		Withdrawals: NewWithdrawalHandler(withdrawal.NewService(withdrawalRepo, log, nil), errs),
	}, apimiddleware.Gate(apimiddleware.AllowAll))

	return &testAPI{e: e, users: userRepo, referrals: referralRepo, withdrawals: withdrawalRepo}
}

func (a *testAPI) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// envelope decodes the response envelope, leaving data raw for the caller.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}
