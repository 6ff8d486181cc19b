package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lanez007/MCA-proxy/models"
	"github.com/lanez007/MCA-proxy/utils"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements AccountRepository interface
type AccountRepositoryImpl struct {
	*BaseRepository[models.Account, models.AccountFilter]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Account, models.AccountFilter](db),
	}
}

// ByEmail retrieves an account by email address (callers pass lowercase)
func (r *AccountRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	db := r.getDB(ctx)
	var account models.Account
	err := db.Where("email = ?", email).Last(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}
	return &account, nil
}

// ByUUID retrieves an account by UUID
func (r *AccountRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Account, error) {
	db := r.getDB(ctx)
	var account models.Account
	err := db.Where("uuid = ?", uuid).Last(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by uuid: %w", err)
	}
	return &account, nil
}

// ResetMonthlyUsage zeroes the usage counter iff the stored reset date still
// sits in an earlier calendar month than now. The WHERE guard keeps the reset
// idempotent under races: only one of N concurrent resets matches a row, the
// rest see zero rows affected and report false.
func (r *AccountRepositoryImpl) ResetMonthlyUsage(ctx context.Context, accountID uint, now time.Time) (bool, error) {
	db := r.getDB(ctx)

	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	result := db.Model(&models.Account{}).
		Where("id = ? AND usage_reset_date < ?", accountID, monthStart).
		Updates(map[string]any{
			"searches_used":    0,
			"usage_reset_date": now,
			"updated_at":       now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to reset monthly usage: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// IncrementSearchesUsed adds delta to the usage counter in a single UPDATE.
// The increment happens inside the database so concurrent searches on the
// same account never lose a debit.
func (r *AccountRepositoryImpl) IncrementSearchesUsed(ctx context.Context, accountID uint, delta int) error {
	if delta <= 0 {
		return nil
	}

	db := r.getDB(ctx)
	result := db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"searches_used": gorm.Expr("searches_used + ?", delta),
			"updated_at":    utils.UTCNow(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to increment searches used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("account not found for usage increment: %d", accountID)
	}

	return nil
}

// UpdateLastLogin stamps the most recent successful login
func (r *AccountRepositoryImpl) UpdateLastLogin(ctx context.Context, accountID uint, loginAt time.Time) error {
	db := r.getDB(ctx)
	result := db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"last_login_at": loginAt.UTC(),
			"updated_at":    utils.UTCNow(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update last login: %w", result.Error)
	}

	return nil
}

// ByFilter retrieves accounts based on filter criteria
func (r *AccountRepositoryImpl) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	db := r.getDB(ctx)
	var accounts []*models.Account

	query := db.Model(&models.Account{})
	query = r.applyFilter(query, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// Count returns the number of accounts matching the filter
func (r *AccountRepositoryImpl) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.Account{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any account matching the filter exists
func (r *AccountRepositoryImpl) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *AccountRepositoryImpl) applyFilter(query *gorm.DB, filter models.AccountFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Plan != nil {
		query = query.Where("plan = ?", *filter.Plan)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}
