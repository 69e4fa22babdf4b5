// Package testhelpers provides testify mocks of the repository interfaces.
package testhelpers

import (
	"context"

	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of domain.UserRepository.
// ApplyDelta runs the callback against a copy of the user returned by the
// expectation, so callers exercise their real guard logic.
type MockUserRepository struct {
	mock.Mock
}

var _ domain.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetOrCreate(ctx context.Context, profile models.UserProfile) (*models.User, bool, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) Patch(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	args := m.Called(ctx, userID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ApplyDelta(ctx context.Context, userID string, fn domain.UserDeltaFunc) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	u := *args.Get(0).(*models.User)
	delta, err := fn(&u)
	if err != nil {
		return nil, err
	}
	delta.ApplyTo(&u)
	return &u, args.Error(1)
}

func (m *MockUserRepository) Normalize(ctx context.Context, userID string) (*models.User, bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

// MockReferralRepository is a mock implementation of domain.ReferralRepository
type MockReferralRepository struct {
	mock.Mock
}

var _ domain.ReferralRepository = (*MockReferralRepository)(nil)

func (m *MockReferralRepository) Create(ctx context.Context, r *models.Referral) (*models.Referral, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Referral), args.Error(1)
}

func (m *MockReferralRepository) CountCompleted(ctx context.Context, referredBy string) (int64, error) {
	args := m.Called(ctx, referredBy)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferralRepository) ListByReferrer(ctx context.Context, referredBy string, page models.Page) ([]*models.Referral, error) {
	args := m.Called(ctx, referredBy, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Referral), args.Error(1)
}

func (m *MockReferralRepository) CountByReferrer(ctx context.Context, referredBy string) (int64, error) {
	args := m.Called(ctx, referredBy)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferralRepository) GrantBonus(ctx context.Context, newUserID, referrerUserID string, newUser, referrer models.UserDelta) (*models.ReferralBonusResult, error) {
	args := m.Called(ctx, newUserID, referrerUserID, newUser, referrer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReferralBonusResult), args.Error(1)
}

// MockWithdrawalRepository is a mock implementation of
// domain.WithdrawalRepository. Create runs the builder against a copy of the
// user returned by the expectation and debits it like the real store.
type MockWithdrawalRepository struct {
	mock.Mock
}

var _ domain.WithdrawalRepository = (*MockWithdrawalRepository)(nil)

func (m *MockWithdrawalRepository) Create(ctx context.Context, userID string, build domain.WithdrawalBuilder) (*models.Withdrawal, *models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(1)
	}

	u := *args.Get(0).(*models.User)
	w, err := build(&u)
	if err != nil {
		return nil, nil, err
	}
	if w.UserName == "" {
		w.UserName = u.FirstName
	}
	if w.Status == "" {
		w.Status = models.WithdrawalStatusPending
	}
	w.ID = "00000000-0000-0000-0000-000000000001"
	w.UserID = u.UserID
	w.UserAds = u.TotalAds
	w.UserReferrals = u.TotalReferrals
	u.Balance -= w.Amount
	return w, &u, args.Error(1)
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) ListByUser(ctx context.Context, userID string, page models.Page) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
