package domain

import (
	"context"

	"github.com/sohojincome/backend/pkg/models"
)

// UserDeltaFunc inspects a locked, normalized user and returns the increments
// to apply. Returning an error aborts the write.
type UserDeltaFunc func(u *models.User) (models.UserDelta, error)

// WithdrawalBuilder inspects a locked, normalized user and returns the
// withdrawal to record. Its Amount is debited from the user's balance.
type WithdrawalBuilder func(u *models.User) (*models.Withdrawal, error)

// UserRepository defines data access operations for users. Every write runs
// the hourly reset normalization on the locked row before persisting.
type UserRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	GetOrCreate(ctx context.Context, profile models.UserProfile) (*models.User, bool, error)
	Patch(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error)
	ApplyDelta(ctx context.Context, userID string, fn UserDeltaFunc) (*models.User, error)
	Normalize(ctx context.Context, userID string) (*models.User, bool, error)
}

// ReferralRepository defines data access operations for referral edges
type ReferralRepository interface {
	Create(ctx context.Context, r *models.Referral) (*models.Referral, error)
	CountCompleted(ctx context.Context, referredBy string) (int64, error)
	ListByReferrer(ctx context.Context, referredBy string, page models.Page) ([]*models.Referral, error)
	CountByReferrer(ctx context.Context, referredBy string) (int64, error)
	GrantBonus(ctx context.Context, newUserID, referrerUserID string, newUser, referrer models.UserDelta) (*models.ReferralBonusResult, error)
}

// WithdrawalRepository defines data access operations for withdrawals
type WithdrawalRepository interface {
	Create(ctx context.Context, userID string, build WithdrawalBuilder) (*models.Withdrawal, *models.User, error)
	GetByID(ctx context.Context, id string) (*models.Withdrawal, error)
	ListByUser(ctx context.Context, userID string, page models.Page) ([]*models.Withdrawal, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}
