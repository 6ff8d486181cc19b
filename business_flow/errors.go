// Package businessflow contains the core business logic and use cases for auth and lead search workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrUnknownPlan        = errors.New("unknown plan tier")

	// Quota errors
	ErrQuotaExceeded = errors.New("monthly search quota exceeded")

	// Lead search errors
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("places provider failure")
	ErrNoLeadsFound     = errors.New("no leads found")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// QuotaExceededError carries the allowance numbers alongside the rejection so
// callers can tell the client how many searches it still has.
type QuotaExceededError struct {
	Limit     int
	Used      int
	Remaining int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly search quota exceeded: used %d of %d", e.Used, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsUnknownPlan(err error) bool {
	return errors.Is(err, ErrUnknownPlan)
}

func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

func IsLocationNotFound(err error) bool {
	return errors.Is(err, ErrLocationNotFound)
}

func IsUpstreamFailure(err error) bool {
	return errors.Is(err, ErrUpstreamFailure)
}

func IsNoLeadsFound(err error) bool {
	return errors.Is(err, ErrNoLeadsFound)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
