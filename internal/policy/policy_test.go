package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spisok/internal/moderation/models"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		override  models.Override
		autoBlock bool
		used      int64
		limit     int64
		want      EffectiveStatus
	}{
		{"under limit", models.OverrideNone, true, 99, 100, EffectiveActive},
		{"at limit trips auto block", models.OverrideNone, true, 100, 100, EffectiveBlocked},
		{"over limit", models.OverrideNone, true, 150, 100, EffectiveBlocked},
		{"auto block disabled ignores usage", models.OverrideNone, false, 150, 100, EffectiveActive},
		{"manual block wins over low usage", models.OverrideBlocked, true, 0, 100, EffectiveBlocked},
		{"manual block wins with auto block off", models.OverrideBlocked, false, 0, 100, EffectiveBlocked},
		{"manual allow wins over exceeded limit", models.OverrideAllowed, true, 150, 100, EffectiveManualAllowed},
		{"zero limit blocks immediately", models.OverrideNone, true, 0, 0, EffectiveBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.override, tt.autoBlock, tt.used, tt.limit)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateAccess(t *testing.T) {
	access, err := models.NewCompanyAccess("company-1", 10, true, time.Now(), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, EffectiveActive, EvaluateAccess(access, 9))
	assert.Equal(t, EffectiveBlocked, EvaluateAccess(access, 10))

	access.ManualOverride = models.OverrideAllowed
	assert.Equal(t, EffectiveManualAllowed, EvaluateAccess(access, 10))
}
