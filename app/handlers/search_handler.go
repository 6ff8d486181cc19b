package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/lanez007/MCA-proxy/app/dto"
	businessflow "github.com/lanez007/MCA-proxy/business_flow"
	"github.com/lanez007/MCA-proxy/utils"
)

// SearchHandlerInterface defines the contract for lead search handlers
type SearchHandlerInterface interface {
	Search(c fiber.Ctx) error
	Export(c fiber.Ctx) error
	History(c fiber.Ctx) error
}

// SearchHandler handles lead search HTTP requests
type SearchHandler struct {
	searchFlow businessflow.LeadSearchFlow
	validator  *validator.Validate
}

// NewSearchHandler creates a new lead search handler
func NewSearchHandler(searchFlow businessflow.LeadSearchFlow) *SearchHandler {
	return &SearchHandler{
		searchFlow: searchFlow,
		validator:  validator.New(),
	}
}

func (h *SearchHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string) error {
	return c.Status(statusCode).JSON(dto.ErrorResponse{
		Error: message,
		Code:  errorCode,
	})
}

// Search finds business leads matching a type and location
// @Summary Search leads
// @Description Search for business leads around a location, debiting the monthly quota by the number of leads returned
// @Tags Search
// @Produce json
// @Security BearerAuth
// @Param type query string true "Business type, e.g. restaurant"
// @Param location query string true "Location to search around, e.g. Austin, TX"
// @Param limit query int false "Maximum number of leads (1-25)" default(10)
// @Param details query bool false "Fetch phone and website per lead" default(true)
// @Success 200 {object} dto.SearchResponse "Leads retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Monthly quota exceeded"
// @Failure 404 {object} dto.ErrorResponse "Location not found"
// @Failure 500 {object} dto.ErrorResponse "Upstream provider error"
// @Router /search [get]
func (h *SearchHandler) Search(c fiber.Ctx) error {
	accountID, ok := c.Locals("account_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID")
	}

	// Parse query params
	req := &dto.SearchRequest{
		BusinessType: c.Query("type"),
		Location:     c.Query("location"),
		Limit:        c.Query("limit"),
		Details:      c.Query("details"),
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, strings.Join(validationErrors, "; "), "VALIDATION_ERROR")
	}

	// Client metadata
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	ctx, cancel := h.createRequestContextWithTimeout(c, "/search", 45*time.Second)
	defer cancel()

	result, err := h.searchFlow.Search(ctx, accountID, req, metadata)
	if err != nil {
		return h.handleSearchError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// Export runs a search and returns the leads as an Excel workbook
// @Summary Export leads
// @Description Search for business leads and download them as an Excel file; quota is debited the same as a regular search
// @Tags Search
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param type query string true "Business type, e.g. restaurant"
// @Param location query string true "Location to search around, e.g. Austin, TX"
// @Param limit query int false "Maximum number of leads (1-25)" default(10)
// @Param details query bool false "Fetch phone and website per lead" default(true)
// @Success 200 {string} string "Excel file"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Monthly quota exceeded"
// @Failure 404 {object} dto.ErrorResponse "Location or leads not found"
// @Failure 500 {object} dto.ErrorResponse "Upstream provider error"
// @Router /search/export [get]
func (h *SearchHandler) Export(c fiber.Ctx) error {
	accountID, ok := c.Locals("account_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID")
	}

	// Parse query params
	req := &dto.SearchRequest{
		BusinessType: c.Query("type"),
		Location:     c.Query("location"),
		Limit:        c.Query("limit"),
		Details:      c.Query("details"),
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, strings.Join(validationErrors, "; "), "VALIDATION_ERROR")
	}

	// Client metadata
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	ctx, cancel := h.createRequestContextWithTimeout(c, "/search/export", 45*time.Second)
	defer cancel()

	filename, data, err := h.searchFlow.Export(ctx, accountID, req, metadata)
	if err != nil {
		return h.handleSearchError(c, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// History lists the authenticated account's past searches
// @Summary Search history
// @Description Retrieve the authenticated account's past searches, newest first
// @Tags Search
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page (max 100)" default(20)
// @Success 200 {object} dto.SearchHistoryResponse "History retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /search/history [get]
func (h *SearchHandler) History(c fiber.Ctx) error {
	accountID, ok := c.Locals("account_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID")
	}

	// Parse query params
	page := 1
	if v, err := strconv.Atoi(c.Query("page", "1")); err == nil && v > 0 {
		page = v
	}
	pageSize := 20
	if v, err := strconv.Atoi(c.Query("page_size", "20")); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > 100 {
		pageSize = 100
	}

	ctx, cancel := h.createRequestContext(c, "/search/history")
	defer cancel()

	result, err := h.searchFlow.History(ctx, accountID, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_PAGINATION")
		}

		log.Println("Search history failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get search history", "SEARCH_HISTORY_FAILED")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *SearchHandler) handleSearchError(c fiber.Ctx, err error) error {
	var quotaErr *businessflow.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error:             "Monthly search quota exceeded",
			Code:              "QUOTA_EXCEEDED",
			SearchesRemaining: &quotaErr.Remaining,
		})
	}
	if businessflow.IsUnknownPlan(err) {
		zero := 0
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error:             "Unknown plan tier",
			Code:              "UNKNOWN_PLAN",
			SearchesRemaining: &zero,
		})
	}
	if businessflow.IsAccountNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND")
	}
	if businessflow.IsLocationNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Location could not be resolved", "LOCATION_NOT_FOUND")
	}
	if businessflow.IsNoLeadsFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "No leads found for this search", "NO_LEADS")
	}
	if businessflow.IsUpstreamFailure(err) {
		log.Println("Lead search upstream failure", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Lead provider request failed", "UPSTREAM_ERROR")
	}

	log.Println("Lead search failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Lead search failed", "SEARCH_FAILED")
}

func (h *SearchHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *SearchHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	return ctx, cancel
}
