package status

import "time"

// IncidentWindowDays is the trailing window, in days, for reported incidents.
const IncidentWindowDays = 7

// Cutoff returns the calendar date IncidentWindowDays before now.
func Cutoff(now time.Time) Date {
	return DateOf(now).AddDays(-IncidentWindowDays)
}

// FilterIncidents returns, in order, the incidents dated on or after cutoff.
// The input slice is not modified.
func FilterIncidents(incidents []Incident, cutoff Date) []Incident {
	filtered := make([]Incident, 0, len(incidents))
	for _, inc := range incidents {
		if !inc.Date.Before(cutoff) {
			filtered = append(filtered, inc)
		}
	}
	return filtered
}

// DeriveStatus maps an already filtered incident list to a status label.
func DeriveStatus(filtered []Incident) Status {
	if len(filtered) > 0 {
		return StatusIssuesDetected
	}
	return StatusOperational
}

// BuildSnapshot turns a raw feed into a snapshot. Incidents are limited to the
// window ending at cutoff; maintenance is kept as-is regardless of its date.
func BuildSnapshot(feed Feed, cutoff Date) ProviderSnapshot {
	incidents := FilterIncidents(feed.Incidents, cutoff)

	maintenance := make([]MaintenanceEvent, len(feed.Maintenance))
	copy(maintenance, feed.Maintenance)

	return ProviderSnapshot{
		Status:      DeriveStatus(incidents),
		Incidents:   incidents,
		Maintenance: maintenance,
	}
}

// ErrorSnapshot is the pessimistic default for a provider whose snapshot
// could not be built.
func ErrorSnapshot() ProviderSnapshot {
	return ProviderSnapshot{
		Status:      StatusError,
		Incidents:   []Incident{},
		Maintenance: []MaintenanceEvent{},
	}
}
