// Package history records the dashboard states published by each refresh cycle.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/cloudstatus/cloudstatus/internal/status"
)

// ErrInvalidLimit is returned when a list limit is out of range.
var ErrInvalidLimit = errors.New("invalid history limit")

// MaxListLimit bounds how many entries a single List call returns.
const MaxListLimit = 100

// ProviderSummary is the recorded outcome of one provider in one cycle.
type ProviderSummary struct {
	Status      status.Status `json:"status"`
	Incidents   int           `json:"incidents"`
	Maintenance int           `json:"maintenance"`
}

// Entry is one published cycle.
type Entry struct {
	Cycle       uint64                                `json:"cycle"`
	RefreshedAt time.Time                             `json:"refreshedAt"`
	Cutoff      status.Date                           `json:"cutoff"`
	Providers   map[status.ProviderID]ProviderSummary `json:"providers"`
}

// EntryFromState summarizes a published state.
func EntryFromState(state *status.DashboardState) Entry {
	providers := make(map[status.ProviderID]ProviderSummary, len(state.Providers))
	for id, snap := range state.Providers {
		providers[id] = ProviderSummary{
			Status:      snap.Status,
			Incidents:   len(snap.Incidents),
			Maintenance: len(snap.Maintenance),
		}
	}
	return Entry{
		Cycle:       state.Cycle,
		RefreshedAt: state.RefreshedAt,
		Cutoff:      state.Cutoff,
		Providers:   providers,
	}
}

// Repository stores cycle history.
type Repository interface {
	// Append records a published cycle.
	Append(ctx context.Context, entry Entry) error

	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]Entry, error)
}

func validateLimit(limit int) error {
	if limit < 1 || limit > MaxListLimit {
		return ErrInvalidLimit
	}
	return nil
}
