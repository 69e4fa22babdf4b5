package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/sohojincome/backend/pkg/database"
	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/eligibility"
	"github.com/sohojincome/backend/pkg/models"
)

const referralColumns = `
	id, user_id, referred_by, referrer_user_id, new_user_name, new_user_id,
	status, source, bonus_given, created_at, updated_at`

// ReferralRepository implements domain.ReferralRepository
type ReferralRepository struct {
	db  *database.DB
	now Clock
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *database.DB) *ReferralRepository {
	return &ReferralRepository{db: db, now: systemClock}
}

func scanReferral(row pgx.Row) (*models.Referral, error) {
	var ref models.Referral
	err := row.Scan(
		&ref.ID,
		&ref.UserID,
		&ref.ReferredBy,
		&ref.ReferrerUserID,
		&ref.NewUserName,
		&ref.NewUserID,
		&ref.Status,
		&ref.Source,
		&ref.BonusGiven,
		&ref.CreatedAt,
		&ref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ref.CreatedAt = ref.CreatedAt.UTC()
	ref.UpdatedAt = ref.UpdatedAt.UTC()
	return &ref, nil
}

// Create stores a referral edge and records the referrer on the referred user
// when that user exists and has none yet.
func (r *ReferralRepository) Create(ctx context.Context, ref *models.Referral) (*models.Referral, error) {
	now := r.now()

	var out *models.Referral
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM referrals WHERE user_id = $1 AND referred_by = $2)`,
			ref.UserID, ref.ReferredBy,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check referral %s -> %s: %w", ref.UserID, ref.ReferredBy, err)
		}
		if exists {
			return domain.NewConflictError("Referral already exists")
		}

		user, err := lockUser(ctx, tx, ref.UserID)
		if err != nil && !domain.IsNotFound(err) {
			return err
		}
		if user != nil && user.ReferredBy != nil {
			return domain.NewConflictError("User already has a referrer")
		}

		query := `
			INSERT INTO referrals (
				user_id, referred_by, referrer_user_id, new_user_name, new_user_id,
				status, source, bonus_given, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING ` + referralColumns

		out, err = scanReferral(tx.QueryRow(ctx, query,
			ref.UserID, ref.ReferredBy, ref.ReferrerUserID, ref.NewUserName, ref.NewUserID,
			ref.Status, ref.Source, ref.BonusGiven, now,
		))
		if err != nil {
			return fmt.Errorf("failed to create referral: %w", mapPgError(err, "Referral already exists"))
		}

		if user == nil {
			return nil
		}
		eligibility.Normalize(user, now)
		referredBy := ref.ReferredBy
		user.ReferredBy = &referredBy
		_, err = saveUser(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountCompleted counts completed referrals made by referredBy
func (r *ReferralRepository) CountCompleted(ctx context.Context, referredBy string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM referrals WHERE referred_by = $1 AND status = $2`,
		referredBy, models.ReferralStatusCompleted,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals for %s: %w", referredBy, err)
	}
	return count, nil
}

// CountByReferrer counts every referral made by referredBy
func (r *ReferralRepository) CountByReferrer(ctx context.Context, referredBy string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM referrals WHERE referred_by = $1`, referredBy).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals for %s: %w", referredBy, err)
	}
	return count, nil
}

// ListByReferrer returns one page of referrals made by referredBy, newest first
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referredBy string, page models.Page) ([]*models.Referral, error) {
	query := `
		SELECT ` + referralColumns + `
		FROM referrals
		WHERE referred_by = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, referredBy, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals for %s: %w", referredBy, err)
	}
	defer rows.Close()

	referrals := make([]*models.Referral, 0)
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		referrals = append(referrals, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referrals: %w", err)
	}
	return referrals, nil
}

// GrantBonus credits both sides of a referral exactly once. The bonus_given
// flag, the new user credit and the referrer credit commit together.
func (r *ReferralRepository) GrantBonus(ctx context.Context, newUserID, referrerUserID string, newUser, referrer models.UserDelta) (*models.ReferralBonusResult, error) {
	now := r.now()

	var out *models.ReferralBonusResult
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		// Lock in a stable order so concurrent grants cannot deadlock.
		ids := []string{newUserID, referrerUserID}
		sort.Strings(ids)
		found := make(map[string]bool, 2)
		for _, id := range ids {
			_, err := lockUser(ctx, tx, id)
			if err != nil && !domain.IsNotFound(err) {
				return err
			}
			found[id] = err == nil
		}
		if !found[newUserID] {
			return domain.NewNotFoundError("New user")
		}
		if !found[referrerUserID] {
			return domain.NewNotFoundError("Referrer")
		}

		tag, err := tx.Exec(ctx, `
			UPDATE referrals SET bonus_given = TRUE, updated_at = $3
			WHERE user_id = $1 AND referred_by = $2 AND bonus_given = FALSE`,
			newUserID, referrerUserID, now,
		)
		if err != nil {
			return fmt.Errorf("failed to mark referral bonus: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM referrals WHERE user_id = $1 AND referred_by = $2)`,
				newUserID, referrerUserID,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check referral %s -> %s: %w", newUserID, referrerUserID, err)
			}
			if exists {
				return domain.NewConflictError("Referral bonus already given")
			}
			return domain.NewNotFoundError("Referral")
		}

		credited, err := applyDelta(ctx, tx, newUserID, now, constDelta(newUser))
		if err != nil {
			return err
		}
		creditedReferrer, err := applyDelta(ctx, tx, referrerUserID, now, constDelta(referrer))
		if err != nil {
			return err
		}

		out = &models.ReferralBonusResult{
			NewUser: models.BonusBalance{Balance: credited.Balance},
			Referrer: models.ReferrerBalance{
				Balance:        creditedReferrer.Balance,
				TotalReferrals: creditedReferrer.TotalReferrals,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func constDelta(d models.UserDelta) domain.UserDeltaFunc {
	return func(*models.User) (models.UserDelta, error) {
		return d, nil
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
