package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/eligibility"
	"github.com/sohojincome/backend/pkg/models"
	"github.com/sohojincome/backend/pkg/repository/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReferral(userID, referredBy string) *models.Referral {
	return &models.Referral{
		UserID:         userID,
		ReferredBy:     referredBy,
		ReferrerUserID: referredBy,
		NewUserName:    models.DefaultFirstName,
		NewUserID:      userID,
		Status:         models.ReferralStatusCompleted,
		Source:         models.DefaultReferralSource,
	}
}

func TestReferralRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewReferralRepository(testDB.DB)
	ctx := context.Background()

	_, _, err := users.GetOrCreate(ctx, models.UserProfile{UserID: "U1"})
	require.NoError(t, err)
	_, _, err = users.GetOrCreate(ctx, models.UserProfile{UserID: "U2"})
	require.NoError(t, err)

	t.Run("stores edge and sets referred_by", func(t *testing.T) {
		ref, err := repo.Create(ctx, newReferral("U2", "U1"))
		require.NoError(t, err)

		assert.NotZero(t, ref.ID)
		assert.Equal(t, models.ReferralStatusCompleted, ref.Status)
		assert.False(t, ref.BonusGiven)

		u2, err := users.GetByUserID(ctx, "U2")
		require.NoError(t, err)
		require.NotNil(t, u2.ReferredBy)
		assert.Equal(t, "U1", *u2.ReferredBy)
	})

	t.Run("duplicate edge rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, newReferral("U2", "U1"))
		de, ok := domain.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, domain.ErrCodeConflict, de.Code)
		assert.Equal(t, "Referral already exists", de.Message)

		count, err := repo.CountCompleted(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("second referrer rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, newReferral("U2", "U3"))
		de, ok := domain.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "User already has a referrer", de.Message)
	})

	t.Run("unknown referred user still gets an edge", func(t *testing.T) {
		_, err := repo.Create(ctx, newReferral("ghost", "U1"))
		require.NoError(t, err)

		_, err = users.GetByUserID(ctx, "ghost")
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("self referral rejected by the store", func(t *testing.T) {
		_, err := repo.Create(ctx, newReferral("U7", "U7"))
		assert.True(t, domain.IsValidation(err))
	})
}

func TestReferralRepository_ListAndCount(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewReferralRepository(testDB.DB)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"A", "B", "C"} {
		repo.now = fixedClock(base.Add(time.Duration(i) * time.Minute))
		_, err := repo.Create(ctx, newReferral(id, "R"))
		require.NoError(t, err)
	}
	repo.now = fixedClock(base.Add(-time.Hour))
	pending := newReferral("D", "R")
	pending.Status = models.ReferralStatusPending
	_, err := repo.Create(ctx, pending)
	require.NoError(t, err)

	total, err := repo.CountByReferrer(ctx, "R")
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	completed, err := repo.CountCompleted(ctx, "R")
	require.NoError(t, err)
	assert.Equal(t, int64(3), completed)

	page, err := repo.ListByReferrer(ctx, "R", models.Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "C", page[0].UserID)
	assert.Equal(t, "B", page[1].UserID)

	page, err = repo.ListByReferrer(ctx, "R", models.Page{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "A", page[0].UserID)
	assert.Equal(t, "D", page[1].UserID)

	empty, err := repo.ListByReferrer(ctx, "nobody", models.Page{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReferralRepository_GrantBonus(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewReferralRepository(testDB.DB)
	ctx := context.Background()

	for _, id := range []string{"U1", "U2", "U3"} {
		_, _, err := users.GetOrCreate(ctx, models.UserProfile{UserID: id})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newReferral("U2", "U1"))
	require.NoError(t, err)

	newDelta, refDelta := eligibility.GrantReferralBonus()

	t.Run("credits both users", func(t *testing.T) {
		res, err := repo.GrantBonus(ctx, "U2", "U1", newDelta, refDelta)
		require.NoError(t, err)

		assert.Equal(t, 100.0, res.NewUser.Balance)
		assert.Equal(t, 150.0, res.Referrer.Balance)
		assert.Equal(t, 1, res.Referrer.TotalReferrals)
	})

	t.Run("second grant rejected without crediting", func(t *testing.T) {
		_, err := repo.GrantBonus(ctx, "U2", "U1", newDelta, refDelta)
		de, ok := domain.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, domain.ErrCodeConflict, de.Code)
		assert.Equal(t, "Referral bonus already given", de.Message)

		u1, err := users.GetByUserID(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, 150.0, u1.Balance)
	})

	t.Run("missing edge", func(t *testing.T) {
		_, err := repo.GrantBonus(ctx, "U3", "U1", newDelta, refDelta)
		de, ok := domain.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "Referral not found", de.Message)
	})

	t.Run("missing users reported new user first", func(t *testing.T) {
		_, err := repo.GrantBonus(ctx, "nobody", "nobody-either", newDelta, refDelta)
		de, ok := domain.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "New user not found", de.Message)

		_, err = repo.GrantBonus(ctx, "U3", "nobody", newDelta, refDelta)
		de, ok = domain.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "Referrer not found", de.Message)
	})
}

func TestReferralRepository_ConcurrentBonusGrantedOnce(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewReferralRepository(testDB.DB)
	ctx := context.Background()

	for _, id := range []string{"U1", "U2"} {
		_, _, err := users.GetOrCreate(ctx, models.UserProfile{UserID: id})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newReferral("U2", "U1"))
	require.NoError(t, err)

	newDelta, refDelta := eligibility.GrantReferralBonus()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GrantBonus(ctx, "U2", "U1", newDelta, refDelta); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	u1, err := users.GetByUserID(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, 150.0, u1.Balance)
	assert.Equal(t, 1, u1.TotalReferrals)
}
