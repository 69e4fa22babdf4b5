package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sohojincome/backend/pkg/database"
	"github.com/sohojincome/backend/pkg/models"
	"github.com/stretchr/testify/require"
)

// NewProfile returns a random Telegram-like user profile.
func NewProfile() models.UserProfile {
	return models.UserProfile{
		UserID:    gofakeit.Numerify("##########"),
		FirstName: gofakeit.FirstName(),
		Username:  gofakeit.Username(),
	}
}

// SeedUser inserts u as-is, bypassing the repository, so tests can start
// from arbitrary counter values.
func SeedUser(t *testing.T, db *database.DB, u *models.User) {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if u.JoinDate.IsZero() {
		u.JoinDate = now
	}
	if u.LastAdReset.IsZero() {
		u.LastAdReset = now
	}
	if u.LastBonusAdReset.IsZero() {
		u.LastBonusAdReset = now
	}

	_, err := db.Exec(context.Background(), `
		INSERT INTO users (
			user_id, first_name, username, balance, today_ads, total_ads, today_bonus_ads,
			total_referrals, total_income, join_date, last_ad_reset, last_bonus_ad_reset,
			referred_by, last_active, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $10, TRUE)`,
		u.UserID, u.FirstName, u.Username, u.Balance, u.TodayAds, u.TotalAds, u.TodayBonusAds,
		u.TotalReferrals, u.TotalIncome, u.JoinDate, u.LastAdReset, u.LastBonusAdReset, u.ReferredBy,
	)
	require.NoError(t, err)
}

// EligibleUser returns a user that meets every withdrawal threshold.
func EligibleUser(balance float64) *models.User {
	p := NewProfile()
	return &models.User{
		UserID:         p.UserID,
		FirstName:      p.FirstName,
		Username:       p.Username,
		Balance:        balance,
		TotalIncome:    balance,
		TotalAds:       15,
		TotalReferrals: 20,
	}
}
