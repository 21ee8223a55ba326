// Package statemachine validates status transitions for moderation entities.
// Each entity kind declares its own transition table; the engine only checks
// that a requested action is defined for the current status and reports the
// resulting status. Actions that do not change status (risk flags, linking)
// are modeled as self-transitions so they still produce an audit entry with
// from == to.
package statemachine

import (
	"sort"

	"spisok/pkg/platform/sentinel"
)

// Status is an entity-kind-specific status value (e.g. "WAITING").
type Status string

// Action is a named, reason-carrying request against an entity.
type Action string

// Table maps (current status, action) to the resulting status. A status with
// no outgoing actions is terminal.
type Table map[Status]map[Action]Status

// Next returns the status that applying action to current yields. It returns
// sentinel.ErrInvalidState when the action is not defined for the current
// status; callers translate that into a typed invalid-transition error.
func (t Table) Next(current Status, action Action) (Status, error) {
	actions, ok := t[current]
	if !ok {
		return "", sentinel.ErrInvalidState
	}
	next, ok := actions[action]
	if !ok {
		return "", sentinel.ErrInvalidState
	}
	return next, nil
}

// Allows reports whether action is legal for the current status.
func (t Table) Allows(current Status, action Action) bool {
	_, err := t.Next(current, action)
	return err == nil
}

// IsTerminal reports whether a status has no outgoing actions.
func (t Table) IsTerminal(s Status) bool {
	return len(t[s]) == 0
}

// ActionsFor returns the legal actions for a status in a stable order, for
// detail views that render available admin actions.
func (t Table) ActionsFor(s Status) []Action {
	actions := make([]Action, 0, len(t[s]))
	for a := range t[s] {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}
