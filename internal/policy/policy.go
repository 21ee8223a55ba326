// Package policy computes the effective access status of a company. The
// result is derived on every evaluation and never cached: the persisted
// truth is the manual override plus the limit settings, and the live usage
// counter comes from the usage recorder.
package policy

import (
	"spisok/internal/moderation/models"
)

// EffectiveStatus is the derived access state the console badge shows. It is
// distinct from the persisted CompanyAccess status.
type EffectiveStatus string

const (
	EffectiveActive        EffectiveStatus = "ACTIVE"
	EffectiveBlocked       EffectiveStatus = "BLOCKED"
	EffectiveManualAllowed EffectiveStatus = "MANUAL_ALLOWED"
)

// Evaluate applies the override-first precedence:
//
//  1. manual override "blocked" wins regardless of usage
//  2. manual override "allowed" wins regardless of usage
//  3. auto-block trips when usage reached the limit
//  4. otherwise the company is active
func Evaluate(override models.Override, autoBlockEnabled bool, checksUsed, checkLimit int64) EffectiveStatus {
	switch override {
	case models.OverrideBlocked:
		return EffectiveBlocked
	case models.OverrideAllowed:
		return EffectiveManualAllowed
	}
	if autoBlockEnabled && checksUsed >= checkLimit {
		return EffectiveBlocked
	}
	return EffectiveActive
}

// EvaluateAccess is a convenience wrapper over a CompanyAccess snapshot and
// a live usage reading.
func EvaluateAccess(a *models.CompanyAccess, checksUsed int64) EffectiveStatus {
	return Evaluate(a.ManualOverride, a.AutoBlockEnabled, checksUsed, a.CheckLimit)
}
