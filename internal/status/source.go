package status

import (
	"context"
	"fmt"
)

// Source supplies the raw incident and maintenance feed for a provider.
type Source interface {
	// Fetch returns the current feed for one provider.
	Fetch(ctx context.Context, provider ProviderID) (Feed, error)

	// Name returns the source name for logging.
	Name() string
}

// MockSourceName identifies the built-in mock source.
const MockSourceName = "mock"

// MockSource serves the fixed per-provider feeds baked into the dashboard.
// Every call builds new slices so callers never share backing arrays.
type MockSource struct{}

// NewMockSource creates the built-in mock source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Name returns the source name.
func (s *MockSource) Name() string {
	return MockSourceName
}

// Fetch returns the mock feed for provider.
func (s *MockSource) Fetch(_ context.Context, provider ProviderID) (Feed, error) {
	switch provider {
	case ProviderAWS:
		return Feed{
			Incidents: []Incident{
				{Title: "S3 Latency Issue", Date: MustParseDate("2025-06-28"), Region: "US-EAST-1", AZ: "us-east-1a"},
			},
			Maintenance: []MaintenanceEvent{
				{Title: "EC2 Scheduled Maintenance", Date: MustParseDate("2025-07-10")},
			},
		}, nil
	case ProviderGCP:
		return Feed{
			Incidents: []Incident{
				{Title: "Compute Engine Outage", Date: MustParseDate("2025-06-25")},
			},
			Maintenance: []MaintenanceEvent{},
		}, nil
	case ProviderOCI:
		return Feed{
			Incidents: []Incident{},
			Maintenance: []MaintenanceEvent{
				{Title: "Database Maintenance", Date: MustParseDate("2025-07-12")},
			},
		}, nil
	case ProviderAzure:
		return Feed{
			Incidents: []Incident{
				{Title: "Storage Service Disruption", Date: MustParseDate("2025-06-27")},
			},
			Maintenance: []MaintenanceEvent{},
		}, nil
	case ProviderM365:
		return Feed{
			Incidents: []Incident{
				{Title: "Microsoft Teams and Exchange Online Outage (MO1096211)", Date: MustParseDate("2025-06-17")},
			},
			Maintenance: []MaintenanceEvent{},
		}, nil
	default:
		return Feed{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, provider ProviderID) (Feed, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, provider ProviderID) (Feed, error) {
	return f(ctx, provider)
}

// Name returns a generic name.
func (f SourceFunc) Name() string {
	return "func"
}
