package businessflow

import (
	"github.com/lanez007/MCA-proxy/models"
)

// QuotaDecision is the outcome of a quota admission check
type QuotaDecision struct {
	Admitted bool

	// Allowance left before this request, clamped at >= 0. Carries the
	// unlimited sentinel on unbounded plans.
	Remaining int
	Limit     int
	Reason    string
}

// QuotaPolicy decides whether a search may proceed given the account's plan
// tier and usage to date. The limit table is injected once at startup and
// never mutated. Admission runs before any provider call so rejected requests
// never spend provider quota.
type QuotaPolicy struct {
	limits models.PlanLimits
}

// NewQuotaPolicy creates a new quota policy with the given limit table
func NewQuotaPolicy(limits models.PlanLimits) *QuotaPolicy {
	return &QuotaPolicy{limits: limits}
}

// Evaluate admits or rejects a request for requested leads. Unbounded tiers
// always admit. A bounded tier admits iff used + requested <= limit; the
// boundary case where the request exactly consumes the allowance admits.
func (p *QuotaPolicy) Evaluate(plan string, used, requested int) QuotaDecision {
	limit, ok := p.limits.LimitFor(plan)
	if !ok {
		return QuotaDecision{Admitted: false, Remaining: 0, Limit: 0, Reason: "unknown plan tier"}
	}

	if limit == models.QuotaUnlimited {
		return QuotaDecision{Admitted: true, Remaining: models.QuotaUnlimited, Limit: models.QuotaUnlimited}
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	if used+requested <= limit {
		return QuotaDecision{Admitted: true, Remaining: remaining, Limit: limit}
	}

	return QuotaDecision{Admitted: false, Remaining: remaining, Limit: limit, Reason: "monthly search quota exceeded"}
}

// Remaining reports the allowance left and the plan limit for a usage pair.
// Both carry the unlimited sentinel on unbounded plans; an unknown plan
// reports zero for both.
func (p *QuotaPolicy) Remaining(plan string, used int) (remaining, limit int) {
	limit, ok := p.limits.LimitFor(plan)
	if !ok {
		return 0, 0
	}

	if limit == models.QuotaUnlimited {
		return models.QuotaUnlimited, models.QuotaUnlimited
	}

	remaining = limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, limit
}
