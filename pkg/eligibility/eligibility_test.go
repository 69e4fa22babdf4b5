package eligibility

import (
	"math/rand"
	"testing"
	"time"

	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func userAt(lastReset time.Time, todayAds, todayBonus int) *models.User {
	return &models.User{
		UserID:           "U1",
		TodayAds:         todayAds,
		TodayBonusAds:    todayBonus,
		LastAdReset:      lastReset,
		LastBonusAdReset: lastReset,
	}
}

func TestCanWatchAd(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		todayAds int
		want     bool
	}{
		{"fresh window with room", 10 * time.Minute, 3, true},
		{"ninth ad still allowed", 59 * time.Minute, 9, true},
		{"limit reached inside window", 59 * time.Minute, 10, false},
		{"window elapsed exactly", time.Hour, 10, true},
		{"several windows elapsed", 5 * time.Hour, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := userAt(base, tt.todayAds, tt.todayAds)
			now := base.Add(tt.elapsed)
			assert.Equal(t, tt.want, CanWatchAd(u, now))
			assert.Equal(t, tt.want, CanWatchBonusAd(u, now))
		})
	}
}

func TestCanWatch_CountersAreIndependent(t *testing.T) {
	u := userAt(base, 10, 2)
	now := base.Add(30 * time.Minute)

	assert.False(t, CanWatchAd(u, now))
	assert.True(t, CanWatchBonusAd(u, now))
}

func TestApplyHourlyReset(t *testing.T) {
	t.Run("resets both when due", func(t *testing.T) {
		u := userAt(base, 10, 7)
		now := base.Add(3 * time.Hour)

		res := ApplyHourlyReset(u, now)

		assert.True(t, res.Ads)
		assert.True(t, res.BonusAds)
		assert.Equal(t, 0, u.TodayAds)
		assert.Equal(t, 0, u.TodayBonusAds)
		assert.Equal(t, now, u.LastAdReset)
		assert.Equal(t, now, u.LastBonusAdReset)
	})

	t.Run("resets only the due counter", func(t *testing.T) {
		u := userAt(base, 4, 6)
		u.LastBonusAdReset = base.Add(90 * time.Minute)
		now := base.Add(2 * time.Hour)

		res := ApplyHourlyReset(u, now)

		assert.True(t, res.Ads)
		assert.False(t, res.BonusAds)
		assert.Equal(t, 0, u.TodayAds)
		assert.Equal(t, 6, u.TodayBonusAds)
	})

	t.Run("idempotent within the window", func(t *testing.T) {
		u := userAt(base, 5, 5)
		now := base.Add(2 * time.Hour)

		first := ApplyHourlyReset(u, now)
		u.TodayAds = 3
		second := ApplyHourlyReset(u, now.Add(59*time.Minute))

		assert.True(t, first.Any())
		assert.False(t, second.Any())
		assert.Equal(t, 3, u.TodayAds)
		assert.Equal(t, now, u.LastAdReset)
	})

	t.Run("no-op before the window elapses", func(t *testing.T) {
		u := userAt(base, 8, 8)
		res := ApplyHourlyReset(u, base.Add(30*time.Minute))

		assert.False(t, res.Any())
		assert.Equal(t, 8, u.TodayAds)
		assert.Equal(t, base, u.LastAdReset)
	})
}

func TestNormalize_StampsLastActive(t *testing.T) {
	u := userAt(base, 1, 1)
	now := base.Add(5 * time.Minute)

	res := Normalize(u, now)

	assert.False(t, res.Any())
	assert.Equal(t, now, u.LastActive)
}

func eligibleUser() *models.User {
	return &models.User{UserID: "U1", Balance: 1000, TotalReferrals: 20, TotalAds: 15}
}

func TestCanWithdraw(t *testing.T) {
	t.Run("eligible", func(t *testing.T) {
		assert.Nil(t, CanWithdraw(eligibleUser(), 500))
		assert.Nil(t, CanWithdraw(eligibleUser(), 1000))
	})

	tests := []struct {
		name   string
		mutate func(u *models.User)
		amount float64
		reason Reason
		field  string
	}{
		{"below minimum", func(u *models.User) {}, 499.99, ReasonBelowMinimum, "amount"},
		{"insufficient balance", func(u *models.User) { u.Balance = 600 }, 700, ReasonInsufficientBalance, "amount"},
		{"not enough referrals", func(u *models.User) { u.TotalReferrals = 14 }, 500, ReasonNotEnoughReferrals, "total_referrals"},
		{"not enough ads", func(u *models.User) { u.TotalAds = 9 }, 500, ReasonNotEnoughAds, "total_ads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := eligibleUser()
			tt.mutate(u)

			inel := CanWithdraw(u, tt.amount)
			require.NotNil(t, inel)
			assert.Equal(t, tt.reason, inel.Reason)
			assert.Equal(t, tt.field, inel.Field)

			de := inel.DomainError()
			assert.True(t, domain.IsValidation(de))
			assert.Equal(t, inel.Data, de.Data)
		})
	}
}

func TestCanWithdraw_ReportsFirstFailingCheck(t *testing.T) {
	u := &models.User{UserID: "U1", Balance: 100, TotalReferrals: 0, TotalAds: 0}

	inel := CanWithdraw(u, 400)
	require.NotNil(t, inel)
	assert.Equal(t, ReasonBelowMinimum, inel.Reason)

	inel = CanWithdraw(u, 600)
	require.NotNil(t, inel)
	assert.Equal(t, ReasonInsufficientBalance, inel.Reason)
	assert.Equal(t, map[string]any{"currentBalance": 100.0, "requestedAmount": 600.0}, inel.Data)
}

func TestGrantReferralBonus(t *testing.T) {
	newUser := NewUser(models.UserProfile{UserID: "U2"}, base)
	referrer := NewUser(models.UserProfile{UserID: "U1"}, base)

	nd, rd := GrantReferralBonus()
	nd.ApplyTo(newUser)
	rd.ApplyTo(referrer)

	assert.Equal(t, 100.0, newUser.Balance)
	assert.Equal(t, 100.0, newUser.TotalIncome)
	assert.Equal(t, 0, newUser.TotalReferrals)
	assert.Equal(t, 150.0, referrer.Balance)
	assert.Equal(t, 150.0, referrer.TotalIncome)
	assert.Equal(t, 1, referrer.TotalReferrals)
}

func TestAdWatch(t *testing.T) {
	regular := AdWatch(models.AdTypeRegular, 2)
	assert.Equal(t, models.UserDelta{Balance: 2, TotalIncome: 2, TodayAds: 1, TotalAds: 1}, regular)

	bonus := AdWatch(models.AdTypeBonus, 5)
	assert.Equal(t, models.UserDelta{Balance: 5, TotalIncome: 5, TodayBonusAds: 1, TotalAds: 1}, bonus)
}

func TestCheckAdWatch(t *testing.T) {
	u := userAt(base, 10, 3)
	now := base.Add(20 * time.Minute)

	err := CheckAdWatch(u, models.AdTypeRegular, now)
	require.Error(t, err)
	assert.True(t, domain.IsLimitExceeded(err))

	assert.NoError(t, CheckAdWatch(u, models.AdTypeBonus, now))
	assert.NoError(t, CheckAdWatch(u, models.AdTypeRegular, base.Add(time.Hour)))
}

func TestNewUser_Defaults(t *testing.T) {
	u := NewUser(models.UserProfile{UserID: "U1"}, base)

	assert.Equal(t, 50.0, u.Balance)
	assert.Equal(t, 50.0, u.TotalIncome)
	assert.Equal(t, models.DefaultFirstName, u.FirstName)
	assert.Equal(t, "", u.Username)
	assert.Nil(t, u.ReferredBy)
	assert.True(t, u.IsActive)
	assert.Equal(t, base, u.JoinDate)
	assert.Equal(t, base, u.LastAdReset)

	named := NewUser(models.UserProfile{UserID: "U2", FirstName: "Rahim", Username: "rahim"}, base)
	assert.Equal(t, "Rahim", named.FirstName)
	assert.Equal(t, "rahim", named.Username)
}

func TestValidateUser(t *testing.T) {
	self := "U1"
	tests := []struct {
		name   string
		mutate func(u *models.User)
		field  string
	}{
		{"negative balance", func(u *models.User) { u.Balance = -0.01 }, "balance"},
		{"negative today ads", func(u *models.User) { u.TodayAds = -1 }, "today_ads"},
		{"negative total referrals", func(u *models.User) { u.TotalReferrals = -1 }, "total_referrals"},
		{"self referral", func(u *models.User) { u.ReferredBy = &self }, "referred_by"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUser(models.UserProfile{UserID: "U1"}, base)
			tt.mutate(u)

			de, ok := domain.AsDomainError(ValidateUser(u))
			require.True(t, ok)
			assert.Equal(t, tt.field, de.Field)
		})
	}

	assert.NoError(t, ValidateUser(NewUser(models.UserProfile{UserID: "U1"}, base)))
}

// Applying only the operations the rules allow never drives a balance negative.
func TestBalanceNeverNegative_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		u := NewUser(models.UserProfile{UserID: "U1"}, base)
		now := base

		for step := 0; step < 100; step++ {
			now = now.Add(time.Duration(rng.Intn(30)) * time.Minute)
			Normalize(u, now)

			switch rng.Intn(4) {
			case 0:
				if CheckAdWatch(u, models.AdTypeRegular, now) == nil {
					AdWatch(models.AdTypeRegular, 2).ApplyTo(u)
				}
			case 1:
				if CheckAdWatch(u, models.AdTypeBonus, now) == nil {
					AdWatch(models.AdTypeBonus, 5).ApplyTo(u)
				}
			case 2:
				_, rd := GrantReferralBonus()
				rd.ApplyTo(u)
			case 3:
				amount := float64(rng.Intn(2000))
				if CanWithdraw(u, amount) == nil {
					WithdrawalDebit(amount).ApplyTo(u)
				}
			}

			require.GreaterOrEqual(t, u.Balance, 0.0)
			require.LessOrEqual(t, u.TodayAds, MaxAdsPerWindow)
			require.LessOrEqual(t, u.TodayBonusAds, MaxAdsPerWindow)
		}
	}
}
