package businessflow

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/lanez007/MCA-proxy/app/dto"
	"github.com/lanez007/MCA-proxy/app/services"
	"github.com/lanez007/MCA-proxy/models"
	"github.com/lanez007/MCA-proxy/repository"
	"github.com/lanez007/MCA-proxy/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthFlow handles registration, login, and current-account lookups
type AuthFlow interface {
	Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Me(ctx context.Context, accountID uint) (*dto.MeResponse, error)
}

// AuthFlowImpl implements the auth business flow
type AuthFlowImpl struct {
	accountRepo  repository.AccountRepository
	tokenService services.TokenService
	quota        *QuotaPolicy
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	accountRepo repository.AccountRepository,
	tokenService services.TokenService,
	quota *QuotaPolicy,
) AuthFlow {
	return &AuthFlowImpl{
		accountRepo:  accountRepo,
		tokenService: tokenService,
		quota:        quota,
	}
}

// Register creates a new account on the pro plan and issues its first token
func (f *AuthFlowImpl) Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := f.accountRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to check existing account", err)
	}
	if existing != nil {
		return nil, NewBusinessError("EMAIL_ALREADY_EXISTS", "Email already exists", ErrEmailAlreadyExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewBusinessError("PASSWORD_HASH_FAILED", "Failed to hash password", err)
	}

	now := utils.UTCNow()
	account := &models.Account{
		UUID:           uuid.New(),
		Email:          email,
		PasswordHash:   string(hashedPassword),
		Plan:           models.PlanPro,
		SearchesUsed:   0,
		UsageResetDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := f.accountRepo.Save(ctx, account); err != nil {
		// The unique index has the final word; a concurrent register can
		// slip past the pre-check above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewBusinessError("EMAIL_ALREADY_EXISTS", "Email already exists", ErrEmailAlreadyExists)
		}
		return nil, NewBusinessError("ACCOUNT_CREATE_FAILED", "Failed to create account", err)
	}

	log.Printf("account %d registered from %s", account.ID, metadata.IPAddress)

	token, err := f.tokenService.GenerateToken(account.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  ToUserInfo(account, f.quota),
	}, nil
}

// Login verifies credentials and issues a fresh token
func (f *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	account, err := f.accountRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to fetch account", err)
	}
	if account == nil {
		// Same rejection as a wrong password so probes cannot tell the two apart
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid email or password", ErrIncorrectPassword)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid email or password", ErrIncorrectPassword)
	}

	// Lazy monthly reset applies on every account read
	account, err = applyLazyReset(ctx, f.accountRepo, account)
	if err != nil {
		return nil, err
	}

	_ = f.accountRepo.UpdateLastLogin(ctx, account.ID, utils.UTCNow())

	token, err := f.tokenService.GenerateToken(account.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  ToUserInfo(account, f.quota),
	}, nil
}

// Me returns the authenticated account's current profile and usage numbers
func (f *AuthFlowImpl) Me(ctx context.Context, accountID uint) (*dto.MeResponse, error) {
	account, err := loadAccount(ctx, f.accountRepo, accountID)
	if err != nil {
		return nil, err
	}

	return &dto.MeResponse{User: ToUserInfo(account, f.quota)}, nil
}

// normalizeEmail lowercases and trims an email so lookups and the unique
// index agree on one canonical form
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
