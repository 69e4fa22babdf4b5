package models

import "time"

// DefaultFirstName is used when a user is created without a display name.
const DefaultFirstName = "ইউজার"

// User is a mini-app participant and their reward counters.
type User struct {
	UserID           string    `json:"userId"`
	FirstName        string    `json:"first_name"`
	Username         string    `json:"username"`
	Balance          float64   `json:"balance"`
	TodayAds         int       `json:"today_ads"`
	TotalAds         int       `json:"total_ads"`
	TodayBonusAds    int       `json:"today_bonus_ads"`
	TotalReferrals   int       `json:"total_referrals"`
	TotalIncome      float64   `json:"total_income"`
	JoinDate         time.Time `json:"join_date"`
	LastAdReset      time.Time `json:"last_ad_reset"`
	LastBonusAdReset time.Time `json:"last_bonus_ad_reset"`
	ReferredBy       *string   `json:"referred_by"`
	LastActive       time.Time `json:"lastActive"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UserProfile carries the display fields used when a user is lazily created.
type UserProfile struct {
	UserID    string
	FirstName string
	Username  string
}

// UserPatch is a partial update of a user. Nil fields are left untouched.
// Identity fields (userId, join_date) are intentionally absent.
type UserPatch struct {
	FirstName        *string    `json:"first_name"`
	Username         *string    `json:"username"`
	Balance          *float64   `json:"balance" validate:"omitempty,gte=0"`
	TodayAds         *int       `json:"today_ads" validate:"omitempty,gte=0"`
	TotalAds         *int       `json:"total_ads" validate:"omitempty,gte=0"`
	TodayBonusAds    *int       `json:"today_bonus_ads" validate:"omitempty,gte=0"`
	TotalReferrals   *int       `json:"total_referrals" validate:"omitempty,gte=0"`
	TotalIncome      *float64   `json:"total_income" validate:"omitempty,gte=0"`
	LastAdReset      *time.Time `json:"last_ad_reset"`
	LastBonusAdReset *time.Time `json:"last_bonus_ad_reset"`
	ReferredBy       *string    `json:"referred_by"`
	LastActive       *time.Time `json:"lastActive"`
	IsActive         *bool      `json:"is_active"`
}

// UserDelta is a set of counter increments applied atomically to one user.
type UserDelta struct {
	Balance        float64
	TotalIncome    float64
	TodayAds       int
	TotalAds       int
	TodayBonusAds  int
	TotalReferrals int
}

// ApplyTo adds the delta to u in place.
func (d UserDelta) ApplyTo(u *User) {
	u.Balance += d.Balance
	u.TotalIncome += d.TotalIncome
	u.TodayAds += d.TodayAds
	u.TotalAds += d.TotalAds
	u.TodayBonusAds += d.TodayBonusAds
	u.TotalReferrals += d.TotalReferrals
}

// UserStats is the summary returned by the stats endpoint.
type UserStats struct {
	Balance          float64   `json:"balance"`
	TodayAds         int       `json:"today_ads"`
	TotalAds         int       `json:"total_ads"`
	TodayBonusAds    int       `json:"today_bonus_ads"`
	TotalReferrals   int       `json:"total_referrals"`
	TotalIncome      float64   `json:"total_income"`
	JoinDate         time.Time `json:"join_date"`
	CanWatchAds      bool      `json:"can_watch_ads"`
	CanWatchBonusAds bool      `json:"can_watch_bonus_ads"`
}

// AdType distinguishes regular ads from bonus ads.
type AdType string

const (
	AdTypeRegular AdType = "regular"
	AdTypeBonus   AdType = "bonus"
)

// WatchAdRequest is the body of the watch-ad endpoint.
type WatchAdRequest struct {
	Type AdType `json:"type" validate:"omitempty,oneof=regular bonus"`
}
