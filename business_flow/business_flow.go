// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/lanez007/MCA-proxy/app/dto"
	"github.com/lanez007/MCA-proxy/models"
	"github.com/lanez007/MCA-proxy/repository"
	"github.com/lanez007/MCA-proxy/utils"
)

// ClientMetadata holds client-related information for request logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToUserInfo converts an account model to UserInfo for auth responses
func ToUserInfo(account *models.Account, quota *QuotaPolicy) dto.UserInfo {
	remaining, limit := quota.Remaining(account.Plan, account.SearchesUsed)

	return dto.UserInfo{
		ID:                account.ID,
		UUID:              account.UUID.String(),
		Email:             account.Email,
		Plan:              account.Plan,
		SearchesUsed:      account.SearchesUsed,
		SearchesRemaining: remaining,
		Limit:             limit,
		CreatedAt:         account.CreatedAt.Format(time.RFC3339),
	}
}

// loadAccount fetches an account and applies the lazy monthly reset
func loadAccount(ctx context.Context, repo repository.AccountRepository, accountID uint) (*models.Account, error) {
	account, err := repo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_FETCH_FAILED", "Failed to fetch account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	return applyLazyReset(ctx, repo, account)
}

// applyLazyReset zeroes the usage counter when the calendar month has rolled
// past the stored reset date, then re-reads the row. The re-read makes
// concurrent callers converge on whichever one actually performed the reset.
func applyLazyReset(ctx context.Context, repo repository.AccountRepository, account *models.Account) (*models.Account, error) {
	now := utils.UTCNow()
	if !account.MonthlyResetDue(now) {
		return account, nil
	}

	if _, err := repo.ResetMonthlyUsage(ctx, account.ID, now); err != nil {
		return nil, NewBusinessError("USAGE_RESET_FAILED", "Failed to reset monthly usage", err)
	}

	account, err := repo.ByID(ctx, account.ID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_FETCH_FAILED", "Failed to fetch account after reset", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	return account, nil
}
