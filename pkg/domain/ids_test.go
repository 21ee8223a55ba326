package domain

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDCarriesKindPrefix(t *testing.T) {
	tests := []struct {
		kind   EntityKind
		prefix string
	}{
		{KindRegistration, "REG-"},
		{KindVerification, "VER-"},
		{KindCompanyAccess, "C-"},
		{KindAppeal, "A-"},
		{KindSupportTicket, "T-"},
	}
	for _, tt := range tests {
		id := NewID(tt.kind)
		assert.True(t, strings.HasPrefix(id, tt.prefix), "id %q should start with %q", id, tt.prefix)
	}
}

func TestNewIDUniqueUnderConcurrency(t *testing.T) {
	const n = 1000
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = NewID(KindSupportTicket)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		require.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestNewIDIsSortableByCreation(t *testing.T) {
	first := NewID(KindAppeal)
	second := NewID(KindAppeal)
	assert.Less(t, first, second)
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind(" Company_Access ")
	require.True(t, ok)
	assert.Equal(t, KindCompanyAccess, kind)

	_, ok = ParseKind("reviews")
	assert.False(t, ok)
}

func TestRefOrdering(t *testing.T) {
	a := Ref{Kind: KindAppeal, ID: "A-1"}
	b := Ref{Kind: KindAppeal, ID: "A-2"}
	c := Ref{Kind: KindSupportTicket, ID: "A-0"}

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
	assert.Equal(t, "appeal/A-1", a.String())
	assert.True(t, Ref{}.IsZero())
}
