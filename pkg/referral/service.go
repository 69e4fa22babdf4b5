package referral

import (
	"context"
	"fmt"
	"strings"

	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/eligibility"
	"github.com/sohojincome/backend/pkg/logger"
	"github.com/sohojincome/backend/pkg/metrics"
	"github.com/sohojincome/backend/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Service handles referral business logic
type Service struct {
	repo    domain.ReferralRepository
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewService creates a new referral service
func NewService(repo domain.ReferralRepository, log logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		log:     log,
		metrics: m,
	}
}

// Create registers a completed referral edge from req.UserID to
// req.ReferredBy and records the referrer on the referred user.
func (s *Service) Create(ctx context.Context, req models.CreateReferralRequest) (*models.Referral, error) {
	userID := strings.TrimSpace(req.UserID)
	referredBy := strings.TrimSpace(req.ReferredBy)
	if userID == "" || referredBy == "" {
		return nil, domain.NewValidationError("userId", "User ID and referredBy are required")
	}
	if userID == referredBy {
		return nil, domain.NewValidationError("referredBy", "Self-referral is not allowed")
	}

	ref := &models.Referral{
		UserID:         userID,
		ReferredBy:     referredBy,
		ReferrerUserID: referredBy,
		NewUserName:    req.NewUserName,
		NewUserID:      req.NewUserID,
		Status:         models.ReferralStatusCompleted,
		Source:         models.DefaultReferralSource,
	}
	if ref.NewUserName == "" {
		ref.NewUserName = models.DefaultFirstName
	}
	if ref.NewUserID == "" {
		ref.NewUserID = userID
	}

	created, err := s.repo.Create(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}

	s.log.Info("referral created", "user_id", userID, "referred_by", referredBy)
	s.metrics.RecordReferralCreated()
	return created, nil
}

// Count returns the number of completed referrals made by userID
func (s *Service) Count(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.CountCompleted(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

// GrantBonus credits the referred user and the referrer once per referral.
func (s *Service) GrantBonus(ctx context.Context, req models.ReferralBonusRequest) (*models.ReferralBonusResult, error) {
	if req.NewUserID == "" || req.ReferrerUserID == "" {
		return nil, domain.NewValidationError("newUserId", "newUserId and referrerUserId are required")
	}

	newUser, referrer := eligibility.GrantReferralBonus()
	res, err := s.repo.GrantBonus(ctx, req.NewUserID, req.ReferrerUserID, newUser, referrer)
	if err != nil {
		return nil, fmt.Errorf("failed to grant referral bonus: %w", err)
	}

	s.log.Info("referral bonus granted",
		"new_user_id", req.NewUserID,
		"referrer_user_id", req.ReferrerUserID,
	)
	s.metrics.RecordReferralBonus()
	return res, nil
}

// List returns a page of referrals made by userID, newest first
func (s *Service) List(ctx context.Context, userID string, page models.Page) (*models.ListResponse[*models.Referral], error) {
	var (
		items []*models.Referral
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListByReferrer(gctx, userID, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByReferrer(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	if items == nil {
		items = []*models.Referral{}
	}
	return &models.ListResponse[*models.Referral]{
		Items:      items,
		Pagination: models.NewPagination(page, total),
	}, nil
}
