// Package domain holds identifier primitives shared across the moderation
// core: entity kinds, cross-entity references, and public id generation.
package domain

import (
	"fmt"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EntityKind enumerates the five entity families the core owns.
type EntityKind string

const (
	KindRegistration  EntityKind = "registration"
	KindVerification  EntityKind = "verification"
	KindCompanyAccess EntityKind = "company_access"
	KindAppeal        EntityKind = "appeal"
	KindSupportTicket EntityKind = "support_ticket"
)

// Kinds lists every entity kind in a stable order.
func Kinds() []EntityKind {
	return []EntityKind{
		KindRegistration,
		KindVerification,
		KindCompanyAccess,
		KindAppeal,
		KindSupportTicket,
	}
}

// ParseKind validates an external kind string (e.g. a URL segment).
func ParseKind(s string) (EntityKind, bool) {
	switch EntityKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindRegistration:
		return KindRegistration, true
	case KindVerification:
		return KindVerification, true
	case KindCompanyAccess:
		return KindCompanyAccess, true
	case KindAppeal:
		return KindAppeal, true
	case KindSupportTicket:
		return KindSupportTicket, true
	}
	return "", false
}

// idPrefixes match the public id scheme the admin console displays
// (REG-001, VER-221, C-440221, T-9902).
var idPrefixes = map[EntityKind]string{
	KindRegistration:  "REG",
	KindVerification:  "VER",
	KindCompanyAccess: "C",
	KindAppeal:        "A",
	KindSupportTicket: "T",
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewID returns a new public identifier for the given kind: a kind prefix
// plus a lexicographically sortable ULID. Ids are never reused; terminal
// entities keep theirs forever.
func NewID(kind EntityKind) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	u := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return fmt.Sprintf("%s-%s", idPrefixes[kind], u.String())
}

// Ref identifies one entity instance across kind boundaries. It is the key
// of the cross-reference index and of audit targeting.
type Ref struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

func (r Ref) String() string {
	return string(r.Kind) + "/" + r.ID
}

// IsZero reports whether the ref is unset.
func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// Less orders refs for deterministic snapshots of link sets.
func (r Ref) Less(other Ref) bool {
	if r.Kind != other.Kind {
		return r.Kind < other.Kind
	}
	return r.ID < other.ID
}
