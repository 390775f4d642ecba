// Package view turns dashboard state into what the page shows: one card per
// provider with its status, recent incidents and scheduled maintenance.
package view

import (
	"strings"

	"github.com/cloudstatus/cloudstatus/internal/status"
)

// NoLink is the non-navigating placeholder for providers without a status page.
const NoLink = "#"

// Fixed list messages.
const (
	NoIncidentsMessage   = "No recent incidents in the last 7 days"
	NoMaintenanceMessage = "No scheduled maintenance"
)

var statusLinks = map[string]string{
	"aws":   "https://health.aws.amazon.com/health/status",
	"gcp":   "https://status.cloud.google.com/",
	"oci":   "https://ocistatus.oraclecloud.com/",
	"azure": "https://status.azure.com/en-us/status/",
	"m365":  "https://status.cloud.microsoft.com/",
}

// LinkKey normalizes a provider display name into a status link key.
func LinkKey(providerName string) string {
	return strings.ReplaceAll(strings.ToLower(providerName), " ", "")
}

// ResolveStatusLink returns the external status page for providerName, or
// NoLink. Keys are matched after lowercasing and removing spaces, so
// "Google Cloud" becomes "googlecloud" and does not match "gcp".
func ResolveStatusLink(providerName string) string {
	if link, ok := statusLinks[LinkKey(providerName)]; ok {
		return link
	}
	return NoLink
}

const (
	annotatedProvider = "AWS"
	annotatedIncident = "S3 Latency Issue"
	annotation        = " (Region: US-EAST-1, AZ: us-east-1a)"
)

// IncidentText renders an incident as "{title} - {date}". The AWS
// "S3 Latency Issue" entry always carries its fixed region annotation; the
// incident's own region and az fields are never shown.
func IncidentText(providerName string, inc status.Incident) string {
	text := inc.Title + " - " + inc.Date.String()
	if providerName == annotatedProvider && inc.Title == annotatedIncident {
		text += annotation
	}
	return text
}

// MaintenanceText renders a maintenance event as "{title} - {date}".
func MaintenanceText(ev status.MaintenanceEvent) string {
	return ev.Title + " - " + ev.Date.String()
}

// Entry is one rendered list item.
type Entry struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// Card is the rendered form of one provider.
type Card struct {
	ID          status.ProviderID `json:"id"`
	Name        string            `json:"name"`
	Status      status.Status     `json:"status"`
	Operational bool              `json:"operational"`
	StatusLink  string            `json:"status_link"`
	Incidents   []Entry           `json:"incidents"`
	Maintenance []Entry           `json:"maintenance"`
}

// NewCard renders snapshot for provider. Incident entries link to the
// provider's status page; maintenance entries have no link.
func NewCard(provider status.ProviderID, snapshot status.ProviderSnapshot) Card {
	name := provider.DisplayName()
	link := ResolveStatusLink(name)

	card := Card{
		ID:          provider,
		Name:        name,
		Status:      snapshot.Status,
		Operational: snapshot.Status.IsOperational(),
		StatusLink:  link,
		Incidents:   make([]Entry, 0, len(snapshot.Incidents)),
		Maintenance: make([]Entry, 0, len(snapshot.Maintenance)),
	}
	for _, inc := range snapshot.Incidents {
		card.Incidents = append(card.Incidents, Entry{Text: IncidentText(name, inc), Link: link})
	}
	for _, ev := range snapshot.Maintenance {
		card.Maintenance = append(card.Maintenance, Entry{Text: MaintenanceText(ev)})
	}
	return card
}

// IncidentsMessage is shown in place of an empty incident list.
func (c Card) IncidentsMessage() string {
	if len(c.Incidents) > 0 {
		return ""
	}
	return NoIncidentsMessage
}

// MaintenanceMessage is shown in place of an empty maintenance list.
func (c Card) MaintenanceMessage() string {
	if len(c.Maintenance) > 0 {
		return ""
	}
	return NoMaintenanceMessage
}
