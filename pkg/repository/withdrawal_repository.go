package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sohojincome/backend/pkg/database"
	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/eligibility"
	"github.com/sohojincome/backend/pkg/models"
)

const withdrawalColumns = `
	id, user_id, user_name, amount, account_number, method, status,
	user_ads, user_referrals, admin_notes, processed_at, created_at, updated_at`

// WithdrawalRepository implements domain.WithdrawalRepository
type WithdrawalRepository struct {
	db    *database.DB
	now   Clock
	newID func() uuid.UUID
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db, now: systemClock, newID: uuid.New}
}

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var (
		w  models.Withdrawal
		id uuid.UUID
	)
	err := row.Scan(
		&id,
		&w.UserID,
		&w.UserName,
		&w.Amount,
		&w.AccountNumber,
		&w.Method,
		&w.Status,
		&w.UserAds,
		&w.UserReferrals,
		&w.AdminNotes,
		&w.ProcessedAt,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.ID = id.String()
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	if w.ProcessedAt != nil {
		processed := w.ProcessedAt.UTC()
		w.ProcessedAt = &processed
	}
	return &w, nil
}

// Create debits the user and records the withdrawal built by build in one
// transaction. build sees the locked, normalized user and may reject it.
func (r *WithdrawalRepository) Create(ctx context.Context, userID string, build domain.WithdrawalBuilder) (*models.Withdrawal, *models.User, error) {
	now := r.now()

	var (
		out  *models.Withdrawal
		user *models.User
	)
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var w *models.Withdrawal
		var err error
		user, err = applyDelta(ctx, tx, userID, now, func(u *models.User) (models.UserDelta, error) {
			w, err = build(u)
			if err != nil {
				return models.UserDelta{}, err
			}
			if w.UserName == "" {
				w.UserName = u.FirstName
			}
			if w.Status == "" {
				w.Status = models.WithdrawalStatusPending
			}
			w.UserID = u.UserID
			w.UserAds = u.TotalAds
			w.UserReferrals = u.TotalReferrals
			return eligibility.WithdrawalDebit(w.Amount), nil
		})
		if err != nil {
			return err
		}

		query := `
			INSERT INTO withdrawals (
				id, user_id, user_name, amount, account_number, method, status,
				user_ads, user_referrals, admin_notes, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
			RETURNING ` + withdrawalColumns

		out, err = scanWithdrawal(tx.QueryRow(ctx, query,
			r.newID(), w.UserID, w.UserName, w.Amount, w.AccountNumber, w.Method, w.Status,
			w.UserAds, w.UserReferrals, w.AdminNotes, now,
		))
		if err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", mapPgError(err, "Withdrawal already exists"))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, user, nil
}

// GetByID retrieves a withdrawal by its id
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.NewNotFoundError("Withdrawal")
	}

	w, err := scanWithdrawal(r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, parsed))
	if isNoRows(err) {
		return nil, domain.NewNotFoundError("Withdrawal")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %s: %w", id, err)
	}
	return w, nil
}

// CountByUser counts the withdrawals requested by userID
func (r *WithdrawalRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawals WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count withdrawals for %s: %w", userID, err)
	}
	return count, nil
}

// ListByUser returns one page of withdrawals requested by userID, newest first
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID string, page models.Page) ([]*models.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals for %s: %w", userID, err)
	}
	defer rows.Close()

	withdrawals := make([]*models.Withdrawal, 0)
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawals: %w", err)
	}
	return withdrawals, nil
}
