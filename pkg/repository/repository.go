// Package repository is the PostgreSQL entity store for users, referrals and
// withdrawals.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sohojincome/backend/pkg/domain"
)

// Queryable is satisfied by both *pgxpool.Pool and pgx.Tx.
type Queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Clock returns the current time. Repositories default to UTC wall-clock time
// truncated to the storage precision.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

const (
	sqlStateUniqueViolation = "23505"
	sqlStateCheckViolation  = "23514"
)

// constraintFields maps CHECK constraint names to the field they guard.
var constraintFields = map[string]string{
	"users_balance_check":              "balance",
	"users_today_ads_check":            "today_ads",
	"users_total_ads_check":            "total_ads",
	"users_today_bonus_ads_check":      "today_bonus_ads",
	"users_total_referrals_check":      "total_referrals",
	"users_total_income_check":         "total_income",
	"users_referred_by_check":          "referred_by",
	"referrals_self_referral_check":    "referredBy",
	"referrals_status_check":           "status",
	"withdrawals_amount_check":         "amount",
	"withdrawals_account_number_check": "accountNumber",
	"withdrawals_method_check":         "method",
	"withdrawals_status_check":         "status",
}

// mapPgError translates constraint violations into domain errors. Other
// errors are returned unchanged.
func mapPgError(err error, conflictMsg string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateUniqueViolation:
		return domain.NewConflictError(conflictMsg)
	case sqlStateCheckViolation:
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return domain.NewValidationError(field, fmt.Sprintf("Invalid value for %s", field))
	}
	return err
}
