package repository

import (
	"context"

	"github.com/lanez007/MCA-proxy/models"
	"gorm.io/gorm"
)

// SearchLogRepositoryImpl implements SearchLogRepository interface
type SearchLogRepositoryImpl struct {
	*BaseRepository[models.SearchLog, models.SearchLogFilter]
}

// NewSearchLogRepository creates a new search log repository
func NewSearchLogRepository(db *gorm.DB) SearchLogRepository {
	return &SearchLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SearchLog, models.SearchLogFilter](db),
	}
}

// ListByAccount retrieves an account's search history, newest first
func (r *SearchLogRepositoryImpl) ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*models.SearchLog, error) {
	db := r.getDB(ctx)
	var logs []*models.SearchLog
	err := db.Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// CountByAccount returns the number of searches an account has logged
func (r *SearchLogRepositoryImpl) CountByAccount(ctx context.Context, accountID uint) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.SearchLog{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ByFilter retrieves search logs based on filter criteria
func (r *SearchLogRepositoryImpl) ByFilter(ctx context.Context, filter models.SearchLogFilter, orderBy string, limit, offset int) ([]*models.SearchLog, error) {
	db := r.getDB(ctx)
	var logs []*models.SearchLog

	query := db.Model(&models.SearchLog{})
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

	err := query.Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// Count returns the number of search logs matching the filter
func (r *SearchLogRepositoryImpl) Count(ctx context.Context, filter models.SearchLogFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.SearchLog{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any search log matching the filter exists
func (r *SearchLogRepositoryImpl) Exists(ctx context.Context, filter models.SearchLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *SearchLogRepositoryImpl) applyFilter(query *gorm.DB, filter models.SearchLogFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CorrelationID != nil {
		query = query.Where("correlation_id = ?", *filter.CorrelationID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.BusinessType != nil {
		query = query.Where("business_type = ?", *filter.BusinessType)
	}
	if filter.Location != nil {
		query = query.Where("location = ?", *filter.Location)
	}
	if filter.WithDetails != nil {
		query = query.Where("with_details = ?", *filter.WithDetails)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}
