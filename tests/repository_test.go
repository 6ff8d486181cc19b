// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lanez007/MCA-proxy/models"
	"github.com/lanez007/MCA-proxy/repository"
	testingutil "github.com/lanez007/MCA-proxy/testing"
	"github.com/lanez007/MCA-proxy/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAccountRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAccountRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("Save", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)
			assert.NotZero(t, account.ID)
			assert.NotEqual(t, uuid.Nil, account.UUID)
		})

		t.Run("SaveDuplicateEmail", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			clone := &models.Account{
				UUID:           uuid.New(),
				Email:          account.Email,
				PasswordHash:   account.PasswordHash,
				Plan:           models.PlanPro,
				UsageResetDate: utils.UTCNow(),
				CreatedAt:      utils.UTCNow(),
				UpdatedAt:      utils.UTCNow(),
			}
			err = repo.Save(ctx, clone)
			require.Error(t, err)
			assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
		})

		t.Run("ByID", func(t *testing.T) {
			original, err := fixtures.CreateTestAccount(models.PlanAgency)
			require.NoError(t, err)

			account, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, account)
			assert.Equal(t, original.ID, account.ID)
			assert.Equal(t, original.Email, account.Email)
			assert.Equal(t, models.PlanAgency, account.Plan)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			account, err := repo.ByID(ctx, 999999)
			assert.NoError(t, err)
			assert.Nil(t, account)
		})

		t.Run("ByEmail", func(t *testing.T) {
			original, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			account, err := repo.ByEmail(ctx, original.Email)
			require.NoError(t, err)
			require.NotNil(t, account)
			assert.Equal(t, original.ID, account.ID)
		})

		t.Run("ByEmailNotFound", func(t *testing.T) {
			account, err := repo.ByEmail(ctx, "nonexistent@example.com")
			assert.NoError(t, err)
			assert.Nil(t, account)
		})

		t.Run("ByUUID", func(t *testing.T) {
			original, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			account, err := repo.ByUUID(ctx, original.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, account)
			assert.Equal(t, original.ID, account.ID)
		})

		t.Run("ByUUIDNotFound", func(t *testing.T) {
			account, err := repo.ByUUID(ctx, uuid.New().String())
			assert.NoError(t, err)
			assert.Nil(t, account)
		})

		t.Run("ByFilter", func(t *testing.T) {
			original, err := fixtures.CreateTestAccount(models.PlanUnlimited)
			require.NoError(t, err)

			// Filter by email
			accounts, err := repo.ByFilter(ctx, models.AccountFilter{Email: &original.Email}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, accounts, 1)
			assert.Equal(t, original.ID, accounts[0].ID)

			// Filter by plan
			plan := models.PlanUnlimited
			accounts, err = repo.ByFilter(ctx, models.AccountFilter{Plan: &plan}, "", 0, 0)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(accounts), 1)
			for _, a := range accounts {
				assert.Equal(t, models.PlanUnlimited, a.Plan)
			}
		})

		t.Run("Count", func(t *testing.T) {
			_, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			count, err := repo.Count(ctx, models.AccountFilter{})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, count, int64(1))
		})

		t.Run("Exists", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			exists, err := repo.Exists(ctx, models.AccountFilter{Email: &account.Email})
			require.NoError(t, err)
			assert.True(t, exists)

			missing := "nonexistent@example.com"
			exists, err = repo.Exists(ctx, models.AccountFilter{Email: &missing})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)
			require.Nil(t, account.LastLoginAt)

			loginAt := utils.UTCNow()
			err = repo.UpdateLastLogin(ctx, account.ID, loginAt)
			require.NoError(t, err)

			updated, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			require.NotNil(t, updated.LastLoginAt)
			assert.WithinDuration(t, loginAt, *updated.LastLoginAt, time.Second)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAccountRepositoryUsageCounters(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAccountRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("IncrementSearchesUsed", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			err = repo.IncrementSearchesUsed(ctx, account.ID, 7)
			require.NoError(t, err)

			updated, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, 7, updated.SearchesUsed)
		})

		t.Run("ZeroDeltaIsANoOp", func(t *testing.T) {
			account, err := fixtures.CreateTestAccountWithUsage(models.PlanPro, 5, utils.UTCNow())
			require.NoError(t, err)

			require.NoError(t, repo.IncrementSearchesUsed(ctx, account.ID, 0))
			require.NoError(t, repo.IncrementSearchesUsed(ctx, account.ID, -3))

			updated, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, updated.SearchesUsed)
		})

		t.Run("IncrementUnknownAccount", func(t *testing.T) {
			err := repo.IncrementSearchesUsed(ctx, 999999, 1)
			assert.Error(t, err)
		})

		t.Run("ConcurrentIncrementsNeverLoseUpdates", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			const workers = 10
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, repo.IncrementSearchesUsed(ctx, account.ID, 3))
				}()
			}
			wg.Wait()

			updated, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, workers*3, updated.SearchesUsed)
		})

		t.Run("ResetMonthlyUsageWhenDue", func(t *testing.T) {
			now := utils.UTCNow()
			account, err := fixtures.CreateTestAccountWithUsage(models.PlanPro, 42, lastMonth(now))
			require.NoError(t, err)

			reset, err := repo.ResetMonthlyUsage(ctx, account.ID, now)
			require.NoError(t, err)
			assert.True(t, reset)

			updated, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, updated.SearchesUsed)
			assert.Equal(t, now.Year(), updated.UsageResetDate.UTC().Year())
			assert.Equal(t, now.Month(), updated.UsageResetDate.UTC().Month())

			// A second reset in the same month matches no row
			reset, err = repo.ResetMonthlyUsage(ctx, account.ID, now)
			require.NoError(t, err)
			assert.False(t, reset)
		})

		t.Run("ResetMonthlyUsageNotDue", func(t *testing.T) {
			account, err := fixtures.CreateTestAccountWithUsage(models.PlanPro, 42, utils.UTCNow())
			require.NoError(t, err)

			reset, err := repo.ResetMonthlyUsage(ctx, account.ID, utils.UTCNow())
			require.NoError(t, err)
			assert.False(t, reset)

			updated, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, 42, updated.SearchesUsed)
		})

		t.Run("ConcurrentResetsApplyOnce", func(t *testing.T) {
			now := utils.UTCNow()
			account, err := fixtures.CreateTestAccountWithUsage(models.PlanPro, 99, lastMonth(now))
			require.NoError(t, err)

			const racers = 5
			results := make(chan bool, racers)
			var wg sync.WaitGroup
			for i := 0; i < racers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					reset, err := repo.ResetMonthlyUsage(ctx, account.ID, utils.UTCNow())
					assert.NoError(t, err)
					results <- reset
				}()
			}
			wg.Wait()
			close(results)

			applied := 0
			for reset := range results {
				if reset {
					applied++
				}
			}
			assert.Equal(t, 1, applied)

			updated, err := repo.ByID(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, updated.SearchesUsed)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSearchLogRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewSearchLogRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("Save", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			searchLog, err := fixtures.CreateTestSearchLog(account.ID, "restaurant", "Miami, FL", 10, 8)
			require.NoError(t, err)
			assert.NotZero(t, searchLog.ID)
			assert.NotEqual(t, uuid.Nil, searchLog.CorrelationID)
		})

		t.Run("ByID", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			original, err := fixtures.CreateTestSearchLog(account.ID, "plumber", "Tampa, FL", 5, 5)
			require.NoError(t, err)

			searchLog, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, searchLog)
			assert.Equal(t, original.ID, searchLog.ID)
			assert.Equal(t, "plumber", searchLog.BusinessType)
			assert.Equal(t, "Tampa, FL", searchLog.Location)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			searchLog, err := repo.ByID(ctx, 999999)
			assert.NoError(t, err)
			assert.Nil(t, searchLog)
		})

		t.Run("ListByAccountNewestFirst", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			base := utils.UTCNow().Add(-1 * time.Hour)
			for i := 0; i < 3; i++ {
				searchLog := &models.SearchLog{
					CorrelationID:  uuid.New(),
					AccountID:      account.ID,
					BusinessType:   fmt.Sprintf("type-%d", i+1),
					Location:       "Miami, FL",
					RequestedCount: 10,
					ReturnedCount:  10,
					WithDetails:    true,
					CreatedAt:      base.Add(time.Duration(i) * time.Minute),
				}
				require.NoError(t, repo.Save(ctx, searchLog))
			}

			logs, err := repo.ListByAccount(ctx, account.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, logs, 3)
			assert.Equal(t, "type-3", logs[0].BusinessType)
			assert.Equal(t, "type-1", logs[2].BusinessType)

			// Limit and offset page through the same ordering
			logs, err = repo.ListByAccount(ctx, account.ID, 1, 1)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.Equal(t, "type-2", logs[0].BusinessType)
		})

		t.Run("CountByAccount", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)
			other, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			for i := 0; i < 4; i++ {
				_, err := fixtures.CreateTestSearchLog(account.ID, "restaurant", "Miami, FL", 10, 10)
				require.NoError(t, err)
			}
			_, err = fixtures.CreateTestSearchLog(other.ID, "restaurant", "Miami, FL", 10, 10)
			require.NoError(t, err)

			count, err := repo.CountByAccount(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(4), count)

			count, err = repo.CountByAccount(ctx, other.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("ByFilter", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			original, err := fixtures.CreateTestSearchLog(account.ID, "dentist", "Orlando, FL", 10, 3)
			require.NoError(t, err)

			// Filter by account
			logs, err := repo.ByFilter(ctx, models.SearchLogFilter{AccountID: &account.ID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.Equal(t, original.ID, logs[0].ID)

			// Filter by business type
			businessType := "dentist"
			logs, err = repo.ByFilter(ctx, models.SearchLogFilter{BusinessType: &businessType}, "", 0, 0)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(logs), 1)

			// Filter by correlation ID
			logs, err = repo.ByFilter(ctx, models.SearchLogFilter{CorrelationID: &original.CorrelationID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.Equal(t, original.ID, logs[0].ID)
		})

		t.Run("Exists", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			exists, err := repo.Exists(ctx, models.SearchLogFilter{AccountID: &account.ID})
			require.NoError(t, err)
			assert.False(t, exists)

			_, err = fixtures.CreateTestSearchLog(account.ID, "restaurant", "Miami, FL", 10, 10)
			require.NoError(t, err)

			exists, err = repo.Exists(ctx, models.SearchLogFilter{AccountID: &account.ID})
			require.NoError(t, err)
			assert.True(t, exists)
		})

		t.Run("DeletingAccountCascades", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.PlanPro)
			require.NoError(t, err)

			_, err = fixtures.CreateTestSearchLog(account.ID, "restaurant", "Miami, FL", 10, 10)
			require.NoError(t, err)

			err = testDB.DB.Exec("DELETE FROM accounts WHERE id = ?", account.ID).Error
			require.NoError(t, err)

			count, err := repo.CountByAccount(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), count)
		})

		return nil
	})
	require.NoError(t, err)
}
