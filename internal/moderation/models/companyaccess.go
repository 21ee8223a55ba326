package models

import (
	"strconv"
	"time"

	"spisok/internal/moderation/statemachine"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
)

// CompanyAccess persisted statuses. These reflect the manual block toggle
// only; the access badge shown to the console is the derived effective
// status (see internal/policy), never stored.
const (
	AccessActive  statemachine.Status = "ACTIVE"
	AccessBlocked statemachine.Status = "BLOCKED"
)

// CompanyAccess actions. Manual block/unblock set the override and are
// independent of the usage-derived auto block.
const (
	ActionBlock   statemachine.Action = "block"
	ActionUnblock statemachine.Action = "unblock"
	// ActionAllowManual pins the company open regardless of usage.
	ActionAllowManual statemachine.Action = "allow_manual"
	// ActionRevertToAuto clears any manual override so the usage policy
	// decides again.
	ActionRevertToAuto statemachine.Action = "revert_to_auto"
	// ActionSetCheckLimit updates the per-period limit ("check_limit" param).
	ActionSetCheckLimit statemachine.Action = "set_check_limit"
	// ActionEnableAutoBlock / ActionDisableAutoBlock toggle the automatic
	// limit enforcement.
	ActionEnableAutoBlock  statemachine.Action = "enable_auto_block"
	ActionDisableAutoBlock statemachine.Action = "disable_auto_block"
)

// CompanyAccessTable is the transition table for CompanyAccess. Neither
// status is terminal; settings actions are self-transitions.
var CompanyAccessTable = statemachine.Table{
	AccessActive: {
		ActionBlock:            AccessBlocked,
		ActionAllowManual:      AccessActive,
		ActionRevertToAuto:     AccessActive,
		ActionSetCheckLimit:    AccessActive,
		ActionEnableAutoBlock:  AccessActive,
		ActionDisableAutoBlock: AccessActive,
	},
	AccessBlocked: {
		ActionUnblock:          AccessActive,
		ActionRevertToAuto:     AccessActive,
		ActionSetCheckLimit:    AccessBlocked,
		ActionEnableAutoBlock:  AccessBlocked,
		ActionDisableAutoBlock: AccessBlocked,
	},
}

// Override is the persisted manual decision layered over the usage policy.
type Override string

const (
	OverrideNone    Override = "none"
	OverrideAllowed Override = "allowed"
	OverrideBlocked Override = "blocked"
)

// CompanyAccess governs how many executor checks a company may run.
// ChecksUsed is deliberately absent: the usage recorder owns the live
// counter (incremented atomically by the check-submission collaborator) and
// read views merge it in, so a manual admin action can never race a counter
// update.
type CompanyAccess struct {
	Meta
	CompanyID        string   `json:"company_id"`
	CheckLimit       int64    `json:"check_limit"`
	AutoBlockEnabled bool     `json:"auto_block_enabled"`
	ManualOverride   Override `json:"manual_override"`
}

// NewCompanyAccess provisions the one-to-one access record for a company.
func NewCompanyAccess(companyID string, checkLimit int64, autoBlock bool, now time.Time, actor string) (*CompanyAccess, error) {
	if companyID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "company id is required")
	}
	if checkLimit < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "check limit must be >= 0")
	}
	return &CompanyAccess{
		Meta:             newMeta(domain.KindCompanyAccess, AccessActive, now, actor),
		CompanyID:        companyID,
		CheckLimit:       checkLimit,
		AutoBlockEnabled: autoBlock,
		ManualOverride:   OverrideNone,
	}, nil
}

// Ref returns the cross-reference key for this access record.
func (c *CompanyAccess) Ref() domain.Ref {
	return domain.Ref{Kind: domain.KindCompanyAccess, ID: c.ID}
}

// Clone returns an independent copy for store snapshots.
func (c *CompanyAccess) Clone() *CompanyAccess {
	cp := *c
	return &cp
}

// GuardAction validates action parameters before the transition is applied.
func (c *CompanyAccess) GuardAction(action statemachine.Action, params map[string]string) error {
	if action == ActionSetCheckLimit {
		limit, err := strconv.ParseInt(params["check_limit"], 10, 64)
		if err != nil || limit < 0 {
			return dErrors.New(dErrors.CodeBadRequest, "check_limit must be a non-negative integer")
		}
	}
	return nil
}

// ApplyAction performs the entity-specific side effects of an accepted
// action. Manual block/unblock keep the override and the persisted status in
// step so both remain the single persisted truth.
func (c *CompanyAccess) ApplyAction(action statemachine.Action, params map[string]string) {
	switch action {
	case ActionBlock:
		c.ManualOverride = OverrideBlocked
	case ActionUnblock, ActionRevertToAuto:
		c.ManualOverride = OverrideNone
	case ActionAllowManual:
		c.ManualOverride = OverrideAllowed
	case ActionSetCheckLimit:
		// Guarded above; the error path is unreachable here.
		limit, _ := strconv.ParseInt(params["check_limit"], 10, 64)
		c.CheckLimit = limit
	case ActionEnableAutoBlock:
		c.AutoBlockEnabled = true
	case ActionDisableAutoBlock:
		c.AutoBlockEnabled = false
	}
}
