// Package testing provides test utilities and database setup for integration tests
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/lanez007/MCA-proxy/models"
	"github.com/lanez007/MCA-proxy/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext behind every fixture account's password hash
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates an account on the given plan with zero usage
func (tf *TestFixtures) CreateTestAccount(plan string) (*models.Account, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		UUID:           uuid.New(),
		Email:          fmt.Sprintf("broker.%s.%d@example.com", plan, rand.Intn(10000000)),
		PasswordHash:   string(hashedPassword),
		Plan:           plan,
		SearchesUsed:   0,
		UsageResetDate: utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}

	return account, nil
}

// CreateTestAccountWithUsage creates an account with the given usage counter and reset date
func (tf *TestFixtures) CreateTestAccountWithUsage(plan string, searchesUsed int, usageResetDate time.Time) (*models.Account, error) {
	account, err := tf.CreateTestAccount(plan)
	if err != nil {
		return nil, err
	}

	account.SearchesUsed = searchesUsed
	account.UsageResetDate = usageResetDate
	if err := tf.DB.DB.Save(account).Error; err != nil {
		return nil, fmt.Errorf("failed to update test account usage: %w", err)
	}

	return account, nil
}

// CreateTestSearchLog records a completed search for the given account
func (tf *TestFixtures) CreateTestSearchLog(accountID uint, businessType, location string, requested, returned int) (*models.SearchLog, error) {
	searchLog := &models.SearchLog{
		CorrelationID:  uuid.New(),
		AccountID:      accountID,
		BusinessType:   businessType,
		Location:       location,
		RequestedCount: requested,
		ReturnedCount:  returned,
		WithDetails:    true,
	}

	if err := tf.DB.DB.Create(searchLog).Error; err != nil {
		return nil, fmt.Errorf("failed to create test search log: %w", err)
	}

	return searchLog, nil
}

// CreateAccountsOnAllPlans creates one account per subscription plan
func (tf *TestFixtures) CreateAccountsOnAllPlans() ([]*models.Account, error) {
	plans := []string{
		models.PlanPro,
		models.PlanAgency,
		models.PlanUnlimited,
		models.PlanAdmin,
	}

	var accounts []*models.Account
	for _, plan := range plans {
		account, err := tf.CreateTestAccount(plan)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s account: %w", plan, err)
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}
