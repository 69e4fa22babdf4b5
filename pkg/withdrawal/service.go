package withdrawal

import (
	"context"
	"fmt"
	"strings"

	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/eligibility"
	"github.com/sohojincome/backend/pkg/logger"
	"github.com/sohojincome/backend/pkg/metrics"
	"github.com/sohojincome/backend/pkg/models"
	"github.com/sohojincome/backend/pkg/phone"
	"golang.org/x/sync/errgroup"
)

const (
	reasonInvalidMethod  = "invalid_method"
	reasonInvalidAccount = "invalid_account"
)

// Service handles withdrawal business logic
type Service struct {
	repo    domain.WithdrawalRepository
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewService creates a new withdrawal service
func NewService(repo domain.WithdrawalRepository, log logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		log:     log,
		metrics: m,
	}
}

// Create accepts a withdrawal request and debits the user's balance.
//
// Checks run against the locked user record in a fixed order and the first
// failure is returned: minimum amount, balance, referrals, ads, method,
// account number.
func (s *Service) Create(ctx context.Context, req models.CreateWithdrawalRequest) (*models.WithdrawalResult, error) {
	if strings.TrimSpace(req.UserID) == "" || req.Amount == 0 ||
		strings.TrimSpace(req.AccountNumber) == "" || req.Method == "" {
		return nil, domain.NewValidationError("body", "All fields are required: userId, amount, accountNumber, method")
	}

	var rejected string
	w, u, err := s.repo.Create(ctx, req.UserID, func(u *models.User) (*models.Withdrawal, error) {
		if inel := eligibility.CanWithdraw(u, req.Amount); inel != nil {
			rejected = string(inel.Reason)
			return nil, inel.DomainError()
		}
		if !req.Method.IsValid() {
			rejected = reasonInvalidMethod
			return nil, domain.NewValidationError("method", "Invalid payment method").
				WithData(map[string]any{"validMethods": models.ValidWithdrawalMethods})
		}
		account, err := phone.NormalizeAccountNumber(req.AccountNumber)
		if err != nil {
			rejected = reasonInvalidAccount
			return nil, domain.NewValidationError("accountNumber",
				"Invalid account number format. Must be a valid Bangladeshi mobile number (11 digits, starting with 01)")
		}

		return &models.Withdrawal{
			UserName:      strings.TrimSpace(req.UserName),
			Amount:        req.Amount,
			AccountNumber: account,
			Method:        req.Method,
			Status:        models.WithdrawalStatusPending,
		}, nil
	})
	if err != nil {
		if rejected != "" {
			s.log.Info("withdrawal rejected", "user_id", req.UserID, "reason", rejected)
			s.metrics.RecordWithdrawalRejected(rejected)
		}
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	s.log.Info("withdrawal requested",
		"withdrawal_id", w.ID,
		"user_id", w.UserID,
		"amount", w.Amount,
		"method", w.Method,
	)
	s.metrics.RecordWithdrawal(string(w.Method))

	return &models.WithdrawalResult{
		Withdrawal: w,
		NewBalance: u.Balance,
	}, nil
}

// Get returns a withdrawal by id
func (s *Service) Get(ctx context.Context, id string) (*models.Withdrawal, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return w, nil
}

// ListByUser returns a page of userID's withdrawals, newest first
func (s *Service) ListByUser(ctx context.Context, userID string, page models.Page) (*models.ListResponse[*models.Withdrawal], error) {
	var (
		items []*models.Withdrawal
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListByUser(gctx, userID, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}

	if items == nil {
		items = []*models.Withdrawal{}
	}
	return &models.ListResponse[*models.Withdrawal]{
		Items:      items,
		Pagination: models.NewPagination(page, total),
	}, nil
}
