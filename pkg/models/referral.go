package models

import "time"

// ReferralStatus is the lifecycle state of a referral edge.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusCancelled ReferralStatus = "cancelled"
)

// DefaultReferralSource tags referrals that arrive through the mini-app start link.
const DefaultReferralSource = "telegram_startapp"

// Referral links a referred user to the user who referred them.
type Referral struct {
	ID             int64          `json:"id"`
	UserID         string         `json:"userId"`
	ReferredBy     string         `json:"referredBy"`
	ReferrerUserID string         `json:"referrerUserId"`
	NewUserName    string         `json:"newUserName"`
	NewUserID      string         `json:"newUserId"`
	Status         ReferralStatus `json:"status"`
	Source         string         `json:"source"`
	BonusGiven     bool           `json:"bonus_given"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// CreateReferralRequest registers a referral edge.
type CreateReferralRequest struct {
	UserID      string `json:"userId" validate:"required"`
	ReferredBy  string `json:"referredBy" validate:"required"`
	NewUserName string `json:"newUserName"`
	NewUserID   string `json:"newUserId"`
}

// ReferralBonusRequest asks for the referral bonus to be credited to both sides.
type ReferralBonusRequest struct {
	NewUserID      string `json:"newUserId" validate:"required"`
	ReferrerUserID string `json:"referrerUserId" validate:"required"`
}

// BonusBalance is the post-bonus balance of the referred user.
type BonusBalance struct {
	Balance float64 `json:"balance"`
}

// ReferrerBalance is the post-bonus state of the referrer.
type ReferrerBalance struct {
	Balance        float64 `json:"balance"`
	TotalReferrals int     `json:"total_referrals"`
}

// ReferralBonusResult is returned after a bonus has been granted.
type ReferralBonusResult struct {
	NewUser  BonusBalance    `json:"newUser"`
	Referrer ReferrerBalance `json:"referrer"`
}

// ReferralCount is the body of the referral count endpoint.
type ReferralCount struct {
	Count int64 `json:"count"`
}
