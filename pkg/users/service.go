package users

import (
	"context"
	"fmt"
	"time"

	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/eligibility"
	"github.com/sohojincome/backend/pkg/logger"
	"github.com/sohojincome/backend/pkg/metrics"
	"github.com/sohojincome/backend/pkg/models"
)

// Rewards configures the balance credited per watched ad.
type Rewards struct {
	Ad      float64
	BonusAd float64
}

// Service handles user business logic
type Service struct {
	repo    domain.UserRepository
	log     logger.Logger
	metrics *metrics.Metrics
	rewards Rewards
	now     func() time.Time
}

// NewService creates a new user service
func NewService(repo domain.UserRepository, log logger.Logger, m *metrics.Metrics, rewards Rewards) *Service {
	return &Service{
		repo:    repo,
		log:     log,
		metrics: m,
		rewards: rewards,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get fetches a user, creating it on first access. A due hourly reset is
// persisted before the record is returned.
func (s *Service) Get(ctx context.Context, profile models.UserProfile) (*models.User, error) {
	u, created, err := s.repo.GetOrCreate(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if created {
		s.log.Info("user created", "user_id", u.UserID)
		s.metrics.RecordUserCreated()
		return u, nil
	}

	probe := *u
	if !eligibility.ApplyHourlyReset(&probe, s.now()).Any() {
		return u, nil
	}

	u, _, err = s.repo.Normalize(ctx, profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to reset user counters: %w", err)
	}
	return u, nil
}

// Update applies a partial update to an existing user
func (s *Service) Update(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	u, err := s.repo.Patch(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// ResetAds applies the hourly ad-counter reset if it is due.
func (s *Service) ResetAds(ctx context.Context, userID string) (*models.User, error) {
	return s.normalize(ctx, userID)
}

// ResetBonusAds applies the hourly bonus-ad reset if it is due.
func (s *Service) ResetBonusAds(ctx context.Context, userID string) (*models.User, error) {
	return s.normalize(ctx, userID)
}

// Both reset operations persist through the same normalization, which
// resets every counter whose window has elapsed.
func (s *Service) normalize(ctx context.Context, userID string) (*models.User, error) {
	u, reset, err := s.repo.Normalize(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reset user counters: %w", err)
	}
	if reset {
		s.log.Debug("hourly counters reset", "user_id", userID)
	}
	return u, nil
}

// Stats summarises a user's counters and current ad allowances
func (s *Service) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	u, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	now := s.now()
	return &models.UserStats{
		Balance:          u.Balance,
		TodayAds:         u.TodayAds,
		TotalAds:         u.TotalAds,
		TodayBonusAds:    u.TodayBonusAds,
		TotalReferrals:   u.TotalReferrals,
		TotalIncome:      u.TotalIncome,
		JoinDate:         u.JoinDate,
		CanWatchAds:      eligibility.CanWatchAd(u, now),
		CanWatchBonusAds: eligibility.CanWatchBonusAd(u, now),
	}, nil
}

// WatchAd records one watched ad and credits its reward. The allowance is
// checked against the locked, normalized record.
func (s *Service) WatchAd(ctx context.Context, userID string, adType models.AdType) (*models.User, error) {
	if adType == "" {
		adType = models.AdTypeRegular
	}
	reward := s.rewards.Ad
	if adType == models.AdTypeBonus {
		reward = s.rewards.BonusAd
	}

	u, err := s.repo.ApplyDelta(ctx, userID, func(u *models.User) (models.UserDelta, error) {
		if err := eligibility.CheckAdWatch(u, adType, s.now()); err != nil {
			return models.UserDelta{}, err
		}
		return eligibility.AdWatch(adType, reward), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record ad watch: %w", err)
	}

	s.metrics.RecordAdWatched(string(adType))
	return u, nil
}
