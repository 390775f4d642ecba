// Package feed implements a status.Source backed by an HTTP JSON status feed.
//
// The feed serves one document per provider at {BaseURL}/{provider}.json:
//
//	{
//	  "incidents":   [{"title": "...", "date": "2025-06-28", "region": "...", "az": "..."}],
//	  "maintenance": [{"title": "...", "date": "2025-07-10"}]
//	}
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cloudstatus/cloudstatus/internal/provider/resilience"
	"github.com/cloudstatus/cloudstatus/internal/status"
)

// SourceName identifies this source.
const SourceName = "http-feed"

// ClientConfig holds configuration for the feed client.
type ClientConfig struct {
	// BaseURL is the feed root (required).
	BaseURL string

	// Timeout bounds each provider request. Default: 10 seconds.
	Timeout time.Duration

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with DefaultClientConfig.
	HTTPClient *resilience.Client

	// Registry receives the default client when HTTPClient is nil.
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches provider feeds over HTTP.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new feed client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(SourceName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the source name.
func (c *Client) Name() string {
	return SourceName
}

// Fetch retrieves the feed document for one provider.
func (c *Client) Fetch(ctx context.Context, provider status.ProviderID) (status.Feed, error) {
	if !provider.Valid() {
		return status.Feed{}, fmt.Errorf("%w: %q", status.ErrUnknownProvider, provider)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s.json", c.baseURL, provider)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return status.Feed{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return status.Feed{}, fmt.Errorf("%w: %s: %v", status.ErrSourceUnavailable, provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return status.Feed{}, fmt.Errorf("%w: %s: unexpected status code: %d",
			status.ErrSourceUnavailable, provider, resp.StatusCode)
	}

	var doc feedDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return status.Feed{}, fmt.Errorf("decoding %s feed: %w", provider, err)
	}

	c.logger.Debug().
		Str("provider", string(provider)).
		Int("incidents", len(doc.Incidents)).
		Int("maintenance", len(doc.Maintenance)).
		Msg("fetched status feed")

	return doc.toFeed(), nil
}

type feedDocument struct {
	Incidents   []status.Incident         `json:"incidents"`
	Maintenance []status.MaintenanceEvent `json:"maintenance"`
}

func (d feedDocument) toFeed() status.Feed {
	feed := status.Feed{
		Incidents:   d.Incidents,
		Maintenance: d.Maintenance,
	}
	if feed.Incidents == nil {
		feed.Incidents = []status.Incident{}
	}
	if feed.Maintenance == nil {
		feed.Maintenance = []status.MaintenanceEvent{}
	}
	return feed
}
