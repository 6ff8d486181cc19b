// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/lanez007/MCA-proxy/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AccountRepository defines operations for accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByUUID(ctx context.Context, uuid string) (*models.Account, error)
	// ResetMonthlyUsage zeroes searches_used iff the stored reset date's
	// calendar month is behind now's. Reports whether a row changed.
	ResetMonthlyUsage(ctx context.Context, accountID uint, now time.Time) (bool, error)
	// IncrementSearchesUsed adds delta to the usage counter in a single
	// UPDATE so concurrent debits never lose increments.
	IncrementSearchesUsed(ctx context.Context, accountID uint, delta int) error
	UpdateLastLogin(ctx context.Context, accountID uint, loginAt time.Time) error
}

// SearchLogRepository defines operations for search logs
type SearchLogRepository interface {
	Repository[models.SearchLog, models.SearchLogFilter]
	ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*models.SearchLog, error)
	CountByAccount(ctx context.Context, accountID uint) (int64, error)
}
