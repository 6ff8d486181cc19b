package businessflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lanez007/MCA-proxy/app/dto"
	"github.com/lanez007/MCA-proxy/app/services"
	"github.com/lanez007/MCA-proxy/models"
	"github.com/lanez007/MCA-proxy/repository"
	"github.com/lanez007/MCA-proxy/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// LeadSearchFlow handles the quota-gated lead search pipeline
type LeadSearchFlow interface {
	Search(ctx context.Context, accountID uint, req *dto.SearchRequest, metadata *ClientMetadata) (*dto.SearchResponse, error)
	Export(ctx context.Context, accountID uint, req *dto.SearchRequest, metadata *ClientMetadata) (string, []byte, error)
	History(ctx context.Context, accountID uint, page, pageSize int) (*dto.SearchHistoryResponse, error)
}

// LeadSearchFlowImpl implements the lead search business flow
type LeadSearchFlowImpl struct {
	accountRepo      repository.AccountRepository
	searchLogRepo    repository.SearchLogRepository
	places           services.PlacesClient
	quota            *QuotaPolicy
	db               *gorm.DB
	maxDetailWorkers int
}

// NewLeadSearchFlow creates a new lead search flow instance
func NewLeadSearchFlow(
	accountRepo repository.AccountRepository,
	searchLogRepo repository.SearchLogRepository,
	places services.PlacesClient,
	quota *QuotaPolicy,
	db *gorm.DB,
	maxDetailWorkers int,
) LeadSearchFlow {
	if maxDetailWorkers < 1 {
		maxDetailWorkers = 1
	}
	return &LeadSearchFlowImpl{
		accountRepo:      accountRepo,
		searchLogRepo:    searchLogRepo,
		places:           places,
		quota:            quota,
		db:               db,
		maxDetailWorkers: maxDetailWorkers,
	}
}

// Search runs the full pipeline: load account (lazy reset), admit against
// quota, geocode, fetch candidates, optionally enrich, then debit usage by
// the number of leads actually returned. Usage is committed only on full
// success; every failure path leaves the counter untouched.
func (f *LeadSearchFlowImpl) Search(ctx context.Context, accountID uint, req *dto.SearchRequest, metadata *ClientMetadata) (*dto.SearchResponse, error) {
	requested := parseRequestedCount(req.Limit)
	withDetails := req.Details != "false"

	account, err := loadAccount(ctx, f.accountRepo, accountID)
	if err != nil {
		return nil, err
	}

	// Admission runs before any provider call
	decision := f.quota.Evaluate(account.Plan, account.SearchesUsed, requested)
	if !decision.Admitted {
		if decision.Reason == "unknown plan tier" {
			return nil, NewBusinessError("UNKNOWN_PLAN", "Unknown plan tier", ErrUnknownPlan)
		}
		return nil, NewBusinessError("QUOTA_EXCEEDED", "Monthly search quota exceeded", &QuotaExceededError{
			Limit:     decision.Limit,
			Used:      account.SearchesUsed,
			Remaining: decision.Remaining,
		})
	}

	coord, err := f.places.Geocode(ctx, req.Location)
	if err != nil {
		if errors.Is(err, services.ErrNoGeocodeMatch) {
			return nil, NewBusinessError("LOCATION_NOT_FOUND", "Location not found", ErrLocationNotFound)
		}
		return nil, NewBusinessError("UPSTREAM_ERROR", "Places provider failure", fmt.Errorf("%w: %v", ErrUpstreamFailure, err))
	}

	summaries, err := f.places.SearchPlaces(ctx, req.BusinessType, *coord, utils.SearchRadiusMeters)
	if err != nil {
		return nil, NewBusinessError("UPSTREAM_ERROR", "Places provider failure", fmt.Errorf("%w: %v", ErrUpstreamFailure, err))
	}

	// The provider may return more candidates than asked for; only the
	// truncated count is returned and billed.
	if len(summaries) > requested {
		summaries = summaries[:requested]
	}
	actual := len(summaries)

	leads := f.buildLeads(ctx, summaries, withDetails, metadata.RequestID)

	// Debit and history row commit together
	correlationID := uuid.New()
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.IncrementSearchesUsed(txCtx, account.ID, actual); err != nil {
			return err
		}

		searchLog := &models.SearchLog{
			CorrelationID:  correlationID,
			AccountID:      account.ID,
			BusinessType:   req.BusinessType,
			Location:       req.Location,
			RequestedCount: requested,
			ReturnedCount:  actual,
			WithDetails:    withDetails,
			CreatedAt:      utils.UTCNow(),
		}
		return f.searchLogRepo.Save(txCtx, searchLog)
	})
	if err != nil {
		return nil, NewBusinessError("USAGE_COMMIT_FAILED", "Failed to record search usage", err)
	}

	updated, err := f.accountRepo.ByID(ctx, account.ID)
	if err != nil || updated == nil {
		// Fall back to the admission snapshot if the re-read fails
		account.SearchesUsed += actual
		updated = account
	}

	remaining, limit := f.quota.Remaining(updated.Plan, updated.SearchesUsed)

	return &dto.SearchResponse{
		Results:           leads,
		SearchesUsed:      updated.SearchesUsed,
		SearchesRemaining: remaining,
		Limit:             limit,
	}, nil
}

// Export runs the same debited pipeline and renders the leads as a workbook
func (f *LeadSearchFlowImpl) Export(ctx context.Context, accountID uint, req *dto.SearchRequest, metadata *ClientMetadata) (string, []byte, error) {
	result, err := f.Search(ctx, accountID, req, metadata)
	if err != nil {
		return "", nil, err
	}
	if len(result.Results) == 0 {
		return "", nil, NewBusinessError("NO_LEADS", "no leads found for this search", ErrNoLeadsFound)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	const sheet = "Leads"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"name", "address", "phone", "website", "rating", "place_id"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, lead := range result.Results {
		phone := ""
		if lead.Phone != nil {
			phone = *lead.Phone
		}
		website := ""
		if lead.Website != nil {
			website = *lead.Website
		}
		rating := ""
		if lead.Rating != nil {
			rating = strconv.FormatFloat(*lead.Rating, 'f', 1, 64)
		}
		record := []string{
			lead.Name,
			lead.Address,
			phone,
			website,
			rating,
			lead.PlaceID,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("leads_%s_%s.xlsx", sanitizeFilename(req.BusinessType), utils.UTCNow().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

// History returns an account's past searches, newest first
func (f *LeadSearchFlowImpl) History(ctx context.Context, accountID uint, page, pageSize int) (*dto.SearchHistoryResponse, error) {
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "page must be at least 1", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "page size must be between 1 and 100", ErrInvalidPageSize)
	}

	logs, err := f.searchLogRepo.ListByAccount(ctx, accountID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("HISTORY_FETCH_FAILED", "Failed to fetch search history", err)
	}

	total, err := f.searchLogRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("HISTORY_COUNT_FAILED", "Failed to count search history", err)
	}

	items := make([]dto.SearchHistoryItem, 0, len(logs))
	for _, l := range logs {
		items = append(items, dto.SearchHistoryItem{
			CorrelationID:  l.CorrelationID.String(),
			BusinessType:   l.BusinessType,
			Location:       l.Location,
			RequestedCount: l.RequestedCount,
			ReturnedCount:  l.ReturnedCount,
			WithDetails:    l.WithDetails,
			CreatedAt:      l.CreatedAt.Format(time.RFC3339),
		})
	}

	return &dto.SearchHistoryResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// buildLeads projects candidates into leads, optionally enriching each with
// contact detail. Detail lookups run concurrently under a bounded worker
// count; a failed lookup degrades its own lead to the bare summary fields and
// never cancels a sibling. All lookups are joined before returning so no
// candidate is dropped.
func (f *LeadSearchFlowImpl) buildLeads(ctx context.Context, summaries []services.PlaceSummary, withDetails bool, requestID string) []dto.LeadDTO {
	leads := make([]dto.LeadDTO, len(summaries))
	for i, s := range summaries {
		leads[i] = dto.LeadDTO{
			Name:    s.Name,
			Address: s.Address,
			PlaceID: s.PlaceID,
			Rating:  s.Rating,
		}
	}

	if !withDetails || len(summaries) == 0 {
		return leads
	}

	sem := make(chan struct{}, f.maxDetailWorkers)
	var wg sync.WaitGroup

	for i := range summaries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			detail, err := f.places.FetchDetail(ctx, summaries[i].PlaceID)
			if err != nil {
				log.Printf("lead search %s: detail lookup degraded for %s: %v", requestID, summaries[i].PlaceID, err)
				return
			}

			// Each goroutine writes only its own index
			leads[i].Phone = detail.Phone
			leads[i].Website = detail.Website
			if detail.Address != nil && *detail.Address != "" {
				leads[i].Address = *detail.Address
			}
		}(i)
	}

	wg.Wait()
	return leads
}

// parseRequestedCount parses the raw limit parameter, falling back to the
// default on absent or unparsable input and clamping into [1, MaxLeadsPerSearch]
func parseRequestedCount(raw string) int {
	count := utils.DefaultLeadCount
	if raw != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			count = n
		}
	}

	if count < 1 {
		count = 1
	}
	if count > utils.MaxLeadsPerSearch {
		count = utils.MaxLeadsPerSearch
	}
	return count
}

func sanitizeFilename(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, safe)
	if safe == "" {
		safe = "leads"
	}
	return safe
}
