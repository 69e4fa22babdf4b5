// Package eligibility holds the reward rules: hourly ad allowances, the
// referral bonus and withdrawal thresholds. Everything here is pure and takes
// the current time explicitly.
package eligibility

import (
	"fmt"
	"time"

	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/models"
)

const (
	// AdWindow is how long an ad counter window lasts before it resets.
	AdWindow = time.Hour
	// MaxAdsPerWindow applies independently to regular and bonus ads.
	MaxAdsPerWindow = 10

	MinWithdrawalAmount    = 500.0
	MinWithdrawalReferrals = 15
	MinWithdrawalAds       = 10

	NewUserBonus  = 50.0
	ReferrerBonus = 100.0

	DefaultBalance = 50.0
	DefaultIncome  = 50.0
)

func windowElapsed(lastReset, now time.Time) bool {
	return now.Sub(lastReset) >= AdWindow
}

// CanWatchAd reports whether u may watch another regular ad at now.
// An elapsed window counts as an implicit reset.
func CanWatchAd(u *models.User, now time.Time) bool {
	return windowElapsed(u.LastAdReset, now) || u.TodayAds < MaxAdsPerWindow
}

// CanWatchBonusAd is CanWatchAd for the bonus-ad counter.
func CanWatchBonusAd(u *models.User, now time.Time) bool {
	return windowElapsed(u.LastBonusAdReset, now) || u.TodayBonusAds < MaxAdsPerWindow
}

// ResetAds zeroes today_ads if the window has elapsed. It reports whether a
// reset happened. Several elapsed windows still reset only once.
func ResetAds(u *models.User, now time.Time) bool {
	if !windowElapsed(u.LastAdReset, now) {
		return false
	}
	u.TodayAds = 0
	u.LastAdReset = now
	return true
}

// ResetBonusAds is ResetAds for the bonus-ad counter.
func ResetBonusAds(u *models.User, now time.Time) bool {
	if !windowElapsed(u.LastBonusAdReset, now) {
		return false
	}
	u.TodayBonusAds = 0
	u.LastBonusAdReset = now
	return true
}

// ResetResult reports which counters ApplyHourlyReset touched.
type ResetResult struct {
	Ads      bool
	BonusAds bool
}

// Any reports whether either counter was reset.
func (r ResetResult) Any() bool {
	return r.Ads || r.BonusAds
}

// ApplyHourlyReset resets both ad counters independently when due.
func ApplyHourlyReset(u *models.User, now time.Time) ResetResult {
	return ResetResult{
		Ads:      ResetAds(u, now),
		BonusAds: ResetBonusAds(u, now),
	}
}

// Normalize is run by the store right before every user write: it applies the
// hourly reset and stamps lastActive.
func Normalize(u *models.User, now time.Time) ResetResult {
	res := ApplyHourlyReset(u, now)
	u.LastActive = now
	return res
}

// Reason identifies which withdrawal threshold was not met.
type Reason string

const (
	ReasonBelowMinimum        Reason = "below_minimum"
	ReasonInsufficientBalance Reason = "insufficient_balance"
	ReasonNotEnoughReferrals  Reason = "not_enough_referrals"
	ReasonNotEnoughAds        Reason = "not_enough_ads"
)

// Ineligible describes the first failed withdrawal predicate.
type Ineligible struct {
	Reason  Reason
	Field   string
	Message string
	Data    map[string]any
}

func (e *Ineligible) Error() string {
	return fmt.Sprintf("withdrawal not allowed (%s): %s", e.Reason, e.Message)
}

// DomainError converts the failure into the validation error surfaced to clients.
func (e *Ineligible) DomainError() *domain.DomainError {
	return domain.NewValidationError(e.Field, e.Message).WithData(e.Data)
}

// CanWithdraw checks the withdrawal thresholds in order: minimum amount,
// balance, referrals, ads. It returns nil when every check passes.
func CanWithdraw(u *models.User, amount float64) *Ineligible {
	if amount < MinWithdrawalAmount {
		return &Ineligible{
			Reason:  ReasonBelowMinimum,
			Field:   "amount",
			Message: "Minimum withdrawal amount is 500 BDT",
			Data:    map[string]any{"minimum": MinWithdrawalAmount},
		}
	}
	if amount > u.Balance {
		return &Ineligible{
			Reason:  ReasonInsufficientBalance,
			Field:   "amount",
			Message: "Insufficient balance",
			Data: map[string]any{
				"currentBalance":  u.Balance,
				"requestedAmount": amount,
			},
		}
	}
	if u.TotalReferrals < MinWithdrawalReferrals {
		return &Ineligible{
			Reason:  ReasonNotEnoughReferrals,
			Field:   "total_referrals",
			Message: "Minimum 15 referrals required for withdrawal",
			Data: map[string]any{
				"currentReferrals":  u.TotalReferrals,
				"requiredReferrals": MinWithdrawalReferrals,
			},
		}
	}
	if u.TotalAds < MinWithdrawalAds {
		return &Ineligible{
			Reason:  ReasonNotEnoughAds,
			Field:   "total_ads",
			Message: "Minimum 10 ads required for withdrawal",
			Data: map[string]any{
				"currentAds":  u.TotalAds,
				"requiredAds": MinWithdrawalAds,
			},
		}
	}
	return nil
}

// GrantReferralBonus returns the credits for the referred user and the
// referrer. Each delta is applied atomically to its own user.
func GrantReferralBonus() (newUser, referrer models.UserDelta) {
	newUser = models.UserDelta{
		Balance:     NewUserBonus,
		TotalIncome: NewUserBonus,
	}
	referrer = models.UserDelta{
		Balance:        ReferrerBonus,
		TotalIncome:    ReferrerBonus,
		TotalReferrals: 1,
	}
	return newUser, referrer
}

// WithdrawalDebit is the delta applied to a user when a withdrawal is accepted.
func WithdrawalDebit(amount float64) models.UserDelta {
	return models.UserDelta{Balance: -amount}
}

// AdWatch returns the delta for one watched ad of type t paying reward.
// Both ad types count towards total_ads.
func AdWatch(t models.AdType, reward float64) models.UserDelta {
	d := models.UserDelta{
		Balance:     reward,
		TotalIncome: reward,
		TotalAds:    1,
	}
	if t == models.AdTypeBonus {
		d.TodayBonusAds = 1
	} else {
		d.TodayAds = 1
	}
	return d
}

// CheckAdWatch returns a limit error when u has used up the allowance for t.
func CheckAdWatch(u *models.User, t models.AdType, now time.Time) error {
	if t == models.AdTypeBonus {
		if CanWatchBonusAd(u, now) {
			return nil
		}
		return domain.NewLimitExceededError("Hourly bonus ad limit reached").WithData(map[string]any{
			"today_bonus_ads": u.TodayBonusAds,
			"limit":           MaxAdsPerWindow,
			"next_reset":      u.LastBonusAdReset.Add(AdWindow),
		})
	}
	if CanWatchAd(u, now) {
		return nil
	}
	return domain.NewLimitExceededError("Hourly ad limit reached").WithData(map[string]any{
		"today_ads":  u.TodayAds,
		"limit":      MaxAdsPerWindow,
		"next_reset": u.LastAdReset.Add(AdWindow),
	})
}

// NewUser builds the record created on first fetch.
func NewUser(p models.UserProfile, now time.Time) *models.User {
	firstName := p.FirstName
	if firstName == "" {
		firstName = models.DefaultFirstName
	}
	return &models.User{
		UserID:           p.UserID,
		FirstName:        firstName,
		Username:         p.Username,
		Balance:          DefaultBalance,
		TotalIncome:      DefaultIncome,
		JoinDate:         now,
		LastAdReset:      now,
		LastBonusAdReset: now,
		LastActive:       now,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ValidateUser enforces the stored-user invariants and names the first
// offending field.
func ValidateUser(u *models.User) error {
	switch {
	case u.UserID == "":
		return domain.NewValidationError("userId", "User ID is required")
	case u.Balance < 0:
		return domain.NewValidationError("balance", "Balance cannot be negative")
	case u.TodayAds < 0:
		return domain.NewValidationError("today_ads", "Today ads cannot be negative")
	case u.TotalAds < 0:
		return domain.NewValidationError("total_ads", "Total ads cannot be negative")
	case u.TodayBonusAds < 0:
		return domain.NewValidationError("today_bonus_ads", "Today bonus ads cannot be negative")
	case u.TotalReferrals < 0:
		return domain.NewValidationError("total_referrals", "Total referrals cannot be negative")
	case u.TotalIncome < 0:
		return domain.NewValidationError("total_income", "Total income cannot be negative")
	case u.ReferredBy != nil && *u.ReferredBy == u.UserID:
		return domain.NewValidationError("referred_by", "Self-referral is not allowed")
	}
	return nil
}
