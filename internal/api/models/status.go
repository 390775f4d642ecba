package models

import (
	"github.com/cloudstatus/cloudstatus/internal/history"
	"github.com/cloudstatus/cloudstatus/internal/status"
	"github.com/cloudstatus/cloudstatus/internal/view"
)

// DashboardResponse is the JSON form of the published dashboard state.
type DashboardResponse struct {
	Cycle       uint64             `json:"cycle"`
	RefreshedAt *Timestamp         `json:"refreshedAt,omitempty"`
	Cutoff      string             `json:"cutoff,omitempty"`
	Providers   []ProviderResponse `json:"providers"`
}

// ProviderResponse is one provider's snapshot plus its rendered card text.
type ProviderResponse struct {
	ID          status.ProviderID         `json:"id"`
	Name        string                    `json:"name"`
	Status      status.Status             `json:"status"`
	StatusLink  string                    `json:"statusLink"`
	Incidents   []status.Incident         `json:"incidents"`
	Maintenance []status.MaintenanceEvent `json:"maintenance"`
	Lines       ProviderLines             `json:"lines"`
}

// ProviderLines are the display strings of a card. The *Empty fields carry
// the placeholder shown when the matching list has no entries.
type ProviderLines struct {
	Incidents        []string `json:"incidents"`
	Maintenance      []string `json:"maintenance"`
	IncidentsEmpty   string   `json:"incidentsEmpty,omitempty"`
	MaintenanceEmpty string   `json:"maintenanceEmpty,omitempty"`
}

// NewDashboardResponse converts a published state.
func NewDashboardResponse(state *status.DashboardState) DashboardResponse {
	resp := DashboardResponse{
		Cycle:       state.Cycle,
		RefreshedAt: TimestampPtr(state.RefreshedAt),
		Cutoff:      state.Cutoff.String(),
		Providers:   make([]ProviderResponse, 0, len(status.Providers())),
	}
	for _, p := range status.Providers() {
		resp.Providers = append(resp.Providers, NewProviderResponse(p, state.Snapshot(p)))
	}
	return resp
}

// NewProviderResponse converts one provider snapshot.
func NewProviderResponse(p status.ProviderID, snap status.ProviderSnapshot) ProviderResponse {
	card := view.NewCard(p, snap)

	lines := ProviderLines{
		Incidents:        make([]string, 0, len(card.Incidents)),
		Maintenance:      make([]string, 0, len(card.Maintenance)),
		IncidentsEmpty:   card.IncidentsMessage(),
		MaintenanceEmpty: card.MaintenanceMessage(),
	}
	for _, e := range card.Incidents {
		lines.Incidents = append(lines.Incidents, e.Text)
	}
	for _, e := range card.Maintenance {
		lines.Maintenance = append(lines.Maintenance, e.Text)
	}

	incidents := snap.Incidents
	if incidents == nil {
		incidents = []status.Incident{}
	}
	maintenance := snap.Maintenance
	if maintenance == nil {
		maintenance = []status.MaintenanceEvent{}
	}

	return ProviderResponse{
		ID:          p,
		Name:        card.Name,
		Status:      snap.Status,
		StatusLink:  card.StatusLink,
		Incidents:   incidents,
		Maintenance: maintenance,
		Lines:       lines,
	}
}

// LinkResponse is the result of resolving a provider name to a status page.
type LinkResponse struct {
	Name       string `json:"name"`
	Normalized string `json:"normalized"`
	URL        string `json:"url"`
	Found      bool   `json:"found"`
}

// NewLinkResponse resolves name.
func NewLinkResponse(name string) LinkResponse {
	url := view.ResolveStatusLink(name)
	return LinkResponse{
		Name:       name,
		Normalized: view.LinkKey(name),
		URL:        url,
		Found:      url != view.NoLink,
	}
}

// HistoryResponse lists recent cycles, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry    `json:"entries"`
	Meta    PagedResponseMeta `json:"meta"`
}

// HistoryEntry is one published cycle.
type HistoryEntry struct {
	Cycle       uint64                                        `json:"cycle"`
	RefreshedAt Timestamp                                     `json:"refreshedAt"`
	Cutoff      string                                        `json:"cutoff"`
	Providers   map[status.ProviderID]history.ProviderSummary `json:"providers"`
}

// NewHistoryResponse converts repository entries.
func NewHistoryResponse(entries []history.Entry, limit int) HistoryResponse {
	resp := HistoryResponse{
		Entries: make([]HistoryEntry, 0, len(entries)),
		Meta:    PagedResponseMeta{Limit: limit, Count: len(entries)},
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, HistoryEntry{
			Cycle:       e.Cycle,
			RefreshedAt: Timestamp(e.RefreshedAt),
			Cutoff:      e.Cutoff.String(),
			Providers:   e.Providers,
		})
	}
	return resp
}

// RefreshResponse summarizes a cycle run on demand.
type RefreshResponse struct {
	Cycle      uint64                              `json:"cycle"`
	Trigger    string                              `json:"trigger"`
	StartedAt  Timestamp                           `json:"startedAt"`
	DurationMs int64                               `json:"durationMs"`
	Cutoff     string                              `json:"cutoff"`
	Statuses   map[status.ProviderID]status.Status `json:"statuses"`
	Failed     int                                 `json:"failed"`
	Errors     []RefreshError                      `json:"errors,omitempty"`
}

// RefreshError describes a provider that fell back to the Error status.
type RefreshError struct {
	Provider status.ProviderID `json:"provider"`
	Error    string            `json:"error"`
}
