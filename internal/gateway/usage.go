package gateway

import (
	"context"

	"spisok/internal/events"
	"spisok/internal/moderation/models"
	"spisok/internal/policy"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
	"spisok/pkg/requestcontext"
)

// UsageResult reports the counter and derived access state after a usage
// operation.
type UsageResult struct {
	CompanyID       string `json:"company_id"`
	ChecksUsed      int64  `json:"checks_used"`
	CheckLimit      int64  `json:"check_limit"`
	EffectiveStatus string `json:"effective_status"`
}

// RecordCheck counts one executor check for a company and re-evaluates the
// access policy. The increment is an atomic counter operation, never an
// entity mutation, so it cannot invalidate a concurrent admin action. An
// auto-block event is emitted exactly once per period: on the increment that
// crosses the limit, or on the first check of a period that starts already
// at or over it (a zero limit, for instance).
func (s *Service) RecordCheck(ctx context.Context, companyID string) (*UsageResult, error) {
	if companyID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "company id is required")
	}
	access, err := s.stores.AccessByCompany(ctx, companyID)
	if err != nil {
		return nil, translateStoreErr(err, domain.Ref{Kind: domain.KindCompanyAccess, ID: companyID})
	}

	used, err := s.usage.Increment(ctx, companyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "usage counter unavailable")
	}

	effective := policy.EvaluateAccess(access, used)
	tripped := used >= access.CheckLimit && (used-1 < access.CheckLimit || used == 1)
	if tripped && access.AutoBlockEnabled && access.ManualOverride == models.OverrideNone {
		s.publish(ctx, events.Event{
			Type: events.TypeAutoBlockTripped,
			Key:  companyID,
			Payload: events.AutoBlockTripped{
				CompanyID:  companyID,
				ChecksUsed: used,
				CheckLimit: access.CheckLimit,
				At:         requestcontext.Now(ctx),
			},
		})
	}
	return &UsageResult{
		CompanyID:       companyID,
		ChecksUsed:      used,
		CheckLimit:      access.CheckLimit,
		EffectiveStatus: string(effective),
	}, nil
}

// ResetUsage zeroes a company's counter at the start of a new billing period.
func (s *Service) ResetUsage(ctx context.Context, companyID string) (*UsageResult, error) {
	if companyID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "company id is required")
	}
	access, err := s.stores.AccessByCompany(ctx, companyID)
	if err != nil {
		return nil, translateStoreErr(err, domain.Ref{Kind: domain.KindCompanyAccess, ID: companyID})
	}
	if err := s.usage.Reset(ctx, companyID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "usage counter unavailable")
	}
	return &UsageResult{
		CompanyID:       companyID,
		ChecksUsed:      0,
		CheckLimit:      access.CheckLimit,
		EffectiveStatus: string(policy.EvaluateAccess(access, 0)),
	}, nil
}
