package statemachine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spisok/pkg/platform/sentinel"
)

var testTable = Table{
	"OPEN": {
		"close": "CLOSED",
		"hold":  "HELD",
		"note":  "OPEN",
	},
	"HELD": {
		"resume": "OPEN",
	},
}

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		action  Action
		want    Status
		wantErr bool
	}{
		{"legal transition", "OPEN", "close", "CLOSED", false},
		{"self transition", "OPEN", "note", "OPEN", false},
		{"action not defined for status", "HELD", "close", "", true},
		{"unknown status", "CLOSED", "close", "", true},
		{"unknown action", "OPEN", "archive", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := testTable.Next(tt.current, tt.action)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestAllows(t *testing.T) {
	assert.True(t, testTable.Allows("OPEN", "hold"))
	assert.False(t, testTable.Allows("HELD", "hold"))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, testTable.IsTerminal("OPEN"))
	assert.True(t, testTable.IsTerminal("CLOSED"))
}

func TestActionsForIsSorted(t *testing.T) {
	assert.Equal(t, []Action{"close", "hold", "note"}, testTable.ActionsFor("OPEN"))
	assert.Empty(t, testTable.ActionsFor("CLOSED"))
}
