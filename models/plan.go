package models

// Plan tiers
const (
	PlanPro       = "pro"
	PlanAgency    = "agency"
	PlanUnlimited = "unlimited"
	PlanAdmin     = "admin"
)

// QuotaUnlimited is the sentinel allowance for plans with no monthly bound.
// It is also what unbounded plans report as their limit over the wire.
const QuotaUnlimited = -1

// PlanLimits maps a plan tier to its monthly search allowance. The table is
// built once at startup and treated as immutable afterwards.
type PlanLimits map[string]int

// DefaultPlanLimits returns the built-in allowance table.
func DefaultPlanLimits() PlanLimits {
	return PlanLimits{
		PlanPro:       250,
		PlanAgency:    1000,
		PlanUnlimited: QuotaUnlimited,
		PlanAdmin:     QuotaUnlimited,
	}
}

// LimitFor returns the monthly allowance for a plan tier and whether the tier
// is known at all.
func (p PlanLimits) LimitFor(plan string) (int, bool) {
	limit, ok := p[plan]
	return limit, ok
}

// IsUnbounded reports whether the tier carries the unlimited sentinel.
func (p PlanLimits) IsUnbounded(plan string) bool {
	limit, ok := p[plan]
	return ok && limit == QuotaUnlimited
}

// IsValidPlan reports whether the tier name is one of the supported plans.
func IsValidPlan(plan string) bool {
	switch plan {
	case PlanPro, PlanAgency, PlanUnlimited, PlanAdmin:
		return true
	default:
		return false
	}
}
