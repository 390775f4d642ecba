// Package status holds the cloud provider status model and the pure logic that
// turns raw incident feeds into per-provider snapshots.
package status

import (
	"errors"
	"fmt"
	"time"
)

// Status errors.
var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrSourceUnavailable = errors.New("status source unavailable")
	ErrInvalidDate       = errors.New("invalid date")
)

// ProviderID identifies one of the monitored cloud providers.
type ProviderID string

const (
	ProviderAWS   ProviderID = "aws"
	ProviderGCP   ProviderID = "gcp"
	ProviderOCI   ProviderID = "oci"
	ProviderAzure ProviderID = "azure"
	ProviderM365  ProviderID = "m365"
)

// Providers returns the fixed provider set in display order.
func Providers() []ProviderID {
	return []ProviderID{ProviderAWS, ProviderGCP, ProviderOCI, ProviderAzure, ProviderM365}
}

var displayNames = map[ProviderID]string{
	ProviderAWS:   "AWS",
	ProviderGCP:   "Google Cloud",
	ProviderOCI:   "Oracle Cloud",
	ProviderAzure: "Microsoft Azure",
	ProviderM365:  "Microsoft 365",
}

// DisplayName returns the human-readable provider name shown on the dashboard.
func (p ProviderID) DisplayName() string {
	if name, ok := displayNames[p]; ok {
		return name
	}
	return string(p)
}

// Valid reports whether p is one of the monitored providers.
func (p ProviderID) Valid() bool {
	_, ok := displayNames[p]
	return ok
}

// ParseProviderID validates a provider identifier.
func ParseProviderID(s string) (ProviderID, error) {
	p := ProviderID(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
	return p, nil
}

// Status is the derived state label of a provider.
type Status string

const (
	StatusLoading        Status = "Loading"
	StatusOperational    Status = "Operational"
	StatusIssuesDetected Status = "Issues Detected"
	StatusError          Status = "Error"
)

// IsOperational reports whether the status is the single "good" state.
func (s Status) IsOperational() bool {
	return s == StatusOperational
}

// Incident is one reported problem for a provider.
type Incident struct {
	Title  string `json:"title"`
	Date   Date   `json:"date"`
	Region string `json:"region,omitempty"`
	AZ     string `json:"az,omitempty"`
}

// MaintenanceEvent is one scheduled maintenance window.
type MaintenanceEvent struct {
	Title string `json:"title"`
	Date  Date   `json:"date"`
}

// Feed is the raw data a Source returns for one provider.
type Feed struct {
	Incidents   []Incident         `json:"incidents"`
	Maintenance []MaintenanceEvent `json:"maintenance"`
}

// ProviderSnapshot is the state of one provider as of one refresh cycle.
// Snapshots are never mutated after construction.
type ProviderSnapshot struct {
	Status      Status             `json:"status"`
	Incidents   []Incident         `json:"incidents"`
	Maintenance []MaintenanceEvent `json:"maintenance"`
}

// DashboardState maps every provider to its snapshot. A published state is
// always complete and is replaced wholesale by the next cycle.
type DashboardState struct {
	// Cycle is the sequence number of the cycle that produced the state.
	// Zero means no cycle has completed yet.
	Cycle uint64 `json:"cycle"`

	// RefreshedAt is when the producing cycle started.
	RefreshedAt time.Time `json:"refreshedAt"`

	// Cutoff is the incident inclusion boundary used by the cycle.
	Cutoff Date `json:"cutoff"`

	Providers map[ProviderID]ProviderSnapshot `json:"providers"`
}

// Snapshot returns the snapshot for a provider, or a Loading snapshot when
// the state does not carry it.
func (s *DashboardState) Snapshot(p ProviderID) ProviderSnapshot {
	if snap, ok := s.Providers[p]; ok {
		return snap
	}
	return ProviderSnapshot{
		Status:      StatusLoading,
		Incidents:   []Incident{},
		Maintenance: []MaintenanceEvent{},
	}
}

// Loaded reports whether at least one cycle has been published.
func (s *DashboardState) Loaded() bool {
	return s.Cycle > 0
}

// InitialState returns the state shown before the first cycle completes:
// every provider is Loading with empty lists.
func InitialState() *DashboardState {
	providers := make(map[ProviderID]ProviderSnapshot, len(displayNames))
	for _, p := range Providers() {
		providers[p] = ProviderSnapshot{
			Status:      StatusLoading,
			Incidents:   []Incident{},
			Maintenance: []MaintenanceEvent{},
		}
	}
	return &DashboardState{Providers: providers}
}
