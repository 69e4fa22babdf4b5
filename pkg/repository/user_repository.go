package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sohojincome/backend/pkg/database"
	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/eligibility"
	"github.com/sohojincome/backend/pkg/models"
)

const userColumns = `
	user_id, first_name, username, balance, today_ads, total_ads, today_bonus_ads,
	total_referrals, total_income, join_date, last_ad_reset, last_bonus_ad_reset,
	referred_by, last_active, is_active, created_at, updated_at`

// UserRepository implements domain.UserRepository
type UserRepository struct {
	db  *database.DB
	now Clock
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db, now: systemClock}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.UserID,
		&u.FirstName,
		&u.Username,
		&u.Balance,
		&u.TodayAds,
		&u.TotalAds,
		&u.TodayBonusAds,
		&u.TotalReferrals,
		&u.TotalIncome,
		&u.JoinDate,
		&u.LastAdReset,
		&u.LastBonusAdReset,
		&u.ReferredBy,
		&u.LastActive,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.JoinDate = u.JoinDate.UTC()
	u.LastAdReset = u.LastAdReset.UTC()
	u.LastBonusAdReset = u.LastBonusAdReset.UTC()
	u.LastActive = u.LastActive.UTC()
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// GetByUserID retrieves a user without modifying it
func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("User")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return u, nil
}

// GetOrCreate returns the user, creating it with default balances when absent.
// The second return value reports whether a row was inserted.
func (r *UserRepository) GetOrCreate(ctx context.Context, profile models.UserProfile) (*models.User, bool, error) {
	u := eligibility.NewUser(profile, r.now())
	if err := eligibility.ValidateUser(u); err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO users (
			user_id, first_name, username, balance, today_ads, total_ads, today_bonus_ads,
			total_referrals, total_income, join_date, last_ad_reset, last_bonus_ad_reset,
			referred_by, last_active, is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query,
		u.UserID, u.FirstName, u.Username, u.Balance, u.TodayAds, u.TotalAds, u.TodayBonusAds,
		u.TotalReferrals, u.TotalIncome, u.JoinDate, u.LastAdReset, u.LastBonusAdReset,
		u.ReferredBy, u.LastActive, u.IsActive, u.CreatedAt, u.UpdatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create user %s: %w", profile.UserID, mapPgError(err, "User already exists"))
	}

	existing, err := r.GetByUserID(ctx, profile.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Patch replaces the provided fields of a user after normalizing it.
func (r *UserRepository) Patch(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	var out *models.User
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		u, err := lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		eligibility.Normalize(u, r.now())
		if err := applyPatch(u, patch); err != nil {
			return err
		}

		out, err = saveUser(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyDelta normalizes the locked user, asks fn for increments and applies
// them atomically.
func (r *UserRepository) ApplyDelta(ctx context.Context, userID string, fn domain.UserDeltaFunc) (*models.User, error) {
	var out *models.User
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = applyDelta(ctx, tx, userID, r.now(), fn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Normalize persists the hourly reset and lastActive for a user. The boolean
// reports whether any counter was reset.
func (r *UserRepository) Normalize(ctx context.Context, userID string) (*models.User, bool, error) {
	var (
		out   *models.User
		reset bool
	)
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		u, err := lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		reset = eligibility.Normalize(u, r.now()).Any()
		out, err = saveUser(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, reset, nil
}

// lockUser reads a user row with FOR UPDATE. It must run inside a transaction.
func lockUser(ctx context.Context, q Queryable, userID string) (*models.User, error) {
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1 FOR UPDATE`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("User")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %s: %w", userID, err)
	}
	return u, nil
}

// saveUser writes every mutable column of an already locked and normalized user.
func saveUser(ctx context.Context, q Queryable, u *models.User) (*models.User, error) {
	if err := eligibility.ValidateUser(u); err != nil {
		return nil, err
	}

	query := `
		UPDATE users SET
			first_name = $2,
			username = $3,
			balance = $4,
			today_ads = $5,
			total_ads = $6,
			today_bonus_ads = $7,
			total_referrals = $8,
			total_income = $9,
			last_ad_reset = $10,
			last_bonus_ad_reset = $11,
			referred_by = $12,
			last_active = $13,
			is_active = $14,
			updated_at = $13
		WHERE user_id = $1
		RETURNING ` + userColumns

	out, err := scanUser(q.QueryRow(ctx, query,
		u.UserID, u.FirstName, u.Username, u.Balance, u.TodayAds, u.TotalAds, u.TodayBonusAds,
		u.TotalReferrals, u.TotalIncome, u.LastAdReset, u.LastBonusAdReset, u.ReferredBy,
		u.LastActive, u.IsActive,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", u.UserID, mapPgError(err, "User already exists"))
	}
	return out, nil
}

// applyDelta locks and normalizes a user, then writes fn's delta as
// increments. Reset counters are zeroed in the same statement.
func applyDelta(ctx context.Context, q Queryable, userID string, now time.Time, fn domain.UserDeltaFunc) (*models.User, error) {
	u, err := lockUser(ctx, q, userID)
	if err != nil {
		return nil, err
	}

	reset := eligibility.Normalize(u, now)

	var delta models.UserDelta
	if fn != nil {
		if delta, err = fn(u); err != nil {
			return nil, err
		}
	}

	next := *u
	delta.ApplyTo(&next)
	if err := eligibility.ValidateUser(&next); err != nil {
		return nil, err
	}

	query := `
		UPDATE users SET
			balance = balance + $2,
			total_income = total_income + $3,
			total_ads = total_ads + $4,
			total_referrals = total_referrals + $5,
			today_ads = CASE WHEN $6::boolean THEN 0 ELSE today_ads END + $7,
			last_ad_reset = CASE WHEN $6::boolean THEN $8 ELSE last_ad_reset END,
			today_bonus_ads = CASE WHEN $9::boolean THEN 0 ELSE today_bonus_ads END + $10,
			last_bonus_ad_reset = CASE WHEN $9::boolean THEN $8 ELSE last_bonus_ad_reset END,
			last_active = $8,
			updated_at = $8
		WHERE user_id = $1
		RETURNING ` + userColumns

	out, err := scanUser(q.QueryRow(ctx, query,
		userID, delta.Balance, delta.TotalIncome, delta.TotalAds, delta.TotalReferrals,
		reset.Ads, delta.TodayAds, now, reset.BonusAds, delta.TodayBonusAds,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to apply delta to user %s: %w", userID, mapPgError(err, "User already exists"))
	}
	return out, nil
}

// applyPatch copies the provided fields onto u. referred_by may be set once
// and never changed afterwards.
func applyPatch(u *models.User, p models.UserPatch) error {
	if p.ReferredBy != nil {
		switch {
		case *p.ReferredBy == "":
			return domain.NewValidationError("referred_by", "referred_by cannot be empty")
		case u.ReferredBy != nil && *u.ReferredBy != *p.ReferredBy:
			return domain.NewConflictError("User already has a referrer")
		}
		ref := *p.ReferredBy
		u.ReferredBy = &ref
	}

	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Balance != nil {
		u.Balance = *p.Balance
	}
	if p.TodayAds != nil {
		u.TodayAds = *p.TodayAds
	}
	if p.TotalAds != nil {
		u.TotalAds = *p.TotalAds
	}
	if p.TodayBonusAds != nil {
		u.TodayBonusAds = *p.TodayBonusAds
	}
	if p.TotalReferrals != nil {
		u.TotalReferrals = *p.TotalReferrals
	}
	if p.TotalIncome != nil {
		u.TotalIncome = *p.TotalIncome
	}
	if p.LastAdReset != nil {
		u.LastAdReset = p.LastAdReset.UTC()
	}
	if p.LastBonusAdReset != nil {
		u.LastBonusAdReset = p.LastBonusAdReset.UTC()
	}
	if p.LastActive != nil {
		u.LastActive = p.LastActive.UTC()
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	return nil
}
