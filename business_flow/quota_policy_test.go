package businessflow

import (
	"testing"

	"github.com/lanez007/MCA-proxy/models"
	"github.com/stretchr/testify/assert"
)

func TestQuotaPolicyEvaluate(t *testing.T) {
	policy := NewQuotaPolicy(models.DefaultPlanLimits())

	tests := []struct {
		name            string
		plan            string
		used            int
		requested       int
		expectAdmitted  bool
		expectRemaining int
		expectLimit     int
	}{
		{
			name:            "pro with room admits",
			plan:            models.PlanPro,
			used:            0,
			requested:       10,
			expectAdmitted:  true,
			expectRemaining: 250,
			expectLimit:     250,
		},
		{
			name:            "request exactly consuming the allowance admits",
			plan:            models.PlanPro,
			used:            240,
			requested:       10,
			expectAdmitted:  true,
			expectRemaining: 10,
			expectLimit:     250,
		},
		{
			name:            "request one over the allowance rejects",
			plan:            models.PlanPro,
			used:            241,
			requested:       10,
			expectAdmitted:  false,
			expectRemaining: 9,
			expectLimit:     250,
		},
		{
			name:            "exhausted allowance rejects even one lead",
			plan:            models.PlanPro,
			used:            250,
			requested:       1,
			expectAdmitted:  false,
			expectRemaining: 0,
			expectLimit:     250,
		},
		{
			name:            "usage past the limit reports zero remaining",
			plan:            models.PlanPro,
			used:            300,
			requested:       1,
			expectAdmitted:  false,
			expectRemaining: 0,
			expectLimit:     250,
		},
		{
			name:            "agency has the larger allowance",
			plan:            models.PlanAgency,
			used:            950,
			requested:       50,
			expectAdmitted:  true,
			expectRemaining: 50,
			expectLimit:     1000,
		},
		{
			name:            "unlimited always admits",
			plan:            models.PlanUnlimited,
			used:            1000000,
			requested:       25,
			expectAdmitted:  true,
			expectRemaining: models.QuotaUnlimited,
			expectLimit:     models.QuotaUnlimited,
		},
		{
			name:            "admin always admits",
			plan:            models.PlanAdmin,
			used:            1000000,
			requested:       25,
			expectAdmitted:  true,
			expectRemaining: models.QuotaUnlimited,
			expectLimit:     models.QuotaUnlimited,
		},
		{
			name:            "unknown plan rejects",
			plan:            "free",
			used:            0,
			requested:       1,
			expectAdmitted:  false,
			expectRemaining: 0,
			expectLimit:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := policy.Evaluate(tt.plan, tt.used, tt.requested)

			assert.Equal(t, tt.expectAdmitted, decision.Admitted)
			assert.Equal(t, tt.expectRemaining, decision.Remaining)
			assert.Equal(t, tt.expectLimit, decision.Limit)
			if !tt.expectAdmitted {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestQuotaPolicyRemaining(t *testing.T) {
	policy := NewQuotaPolicy(models.DefaultPlanLimits())

	t.Run("bounded plan", func(t *testing.T) {
		remaining, limit := policy.Remaining(models.PlanPro, 13)
		assert.Equal(t, 237, remaining)
		assert.Equal(t, 250, limit)
	})

	t.Run("usage beyond the limit clamps at zero", func(t *testing.T) {
		remaining, limit := policy.Remaining(models.PlanPro, 999)
		assert.Equal(t, 0, remaining)
		assert.Equal(t, 250, limit)
	})

	t.Run("unbounded plan carries the sentinel", func(t *testing.T) {
		remaining, limit := policy.Remaining(models.PlanUnlimited, 999)
		assert.Equal(t, models.QuotaUnlimited, remaining)
		assert.Equal(t, models.QuotaUnlimited, limit)
	})

	t.Run("unknown plan reports zero", func(t *testing.T) {
		remaining, limit := policy.Remaining("free", 3)
		assert.Equal(t, 0, remaining)
		assert.Equal(t, 0, limit)
	})
}
