package store

import (
	"context"

	"spisok/internal/moderation/models"
	"spisok/pkg/platform/sentinel"
)

// Stores bundles the per-kind entity stores the services depend on.
type Stores struct {
	Registrations *Memory[*models.Registration]
	Verifications *Memory[*models.Verification]
	Access        *Memory[*models.CompanyAccess]
	Appeals       *Memory[*models.Appeal]
	Tickets       *Memory[*models.SupportTicket]
}

// NewStores builds an empty store set.
func NewStores() *Stores {
	return &Stores{
		Registrations: NewMemory[*models.Registration](),
		Verifications: NewMemory[*models.Verification](),
		Access:        NewMemory[*models.CompanyAccess](),
		Appeals:       NewMemory[*models.Appeal](),
		Tickets:       NewMemory[*models.SupportTicket](),
	}
}

// AccessByCompany resolves the one-to-one CompanyAccess record for a company
// profile id. Returns sentinel.ErrNotFound if none is provisioned.
func (s *Stores) AccessByCompany(ctx context.Context, companyID string) (*models.CompanyAccess, error) {
	items, err := s.Access.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range items {
		if a.CompanyID == companyID {
			return a, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
