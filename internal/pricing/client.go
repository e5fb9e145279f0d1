// Package pricing wraps the Smart Energy Control pricing API: current
// year/month, price-component lookups filtered by facets, and
// postcode-derived constants.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/wonny/sectrack/pkg/config"
	"github.com/wonny/sectrack/pkg/httputil"
	"github.com/wonny/sectrack/pkg/logger"
)

// API is the capability interface the wizard, sensors and jobs consume.
// A transport or status failure comes back as a non-nil error; "the API
// answered but nothing matched" is a nil error with an empty slice, and
// callers treat the two differently.
type API interface {
	// Authenticate validates the key and caches the server's current
	// year/month for use as facet defaults.
	Authenticate(ctx context.Context) error

	// PriceComponents returns flattened priced line items matching the
	// partial facet filter.
	PriceComponents(ctx context.Context, f Facets) ([]PriceComponent, error)

	// Constants returns postcode-derived constants.
	Constants(ctx context.Context, zipCode string) (map[string]any, error)
}

// Client is the HTTP implementation of API.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	mu    sync.Mutex
	year  string
	month string
}

var _ API = (*Client)(nil)

// NewClient creates a pricing client. The API key travels as the
// Authorization header on every request.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.New(log).
		WithHeader("Authorization", cfg.API.Key).
		WithHeader("Content-Type", "application/json").
		WithRateLimit(cfg.API.RateLimit)

	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.API.BaseURL,
	}
}

// Authenticate fetches the server's notion of the current year and month.
// A success doubles as proof the key is valid.
func (c *Client) Authenticate(ctx context.Context) error {
	resp, err := c.httpClient.Get(ctx, c.baseURL+"/month")
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("authenticate: unexpected status code %d", resp.StatusCode)
	}

	var payload struct {
		Jaar  json.Number `json:"jaar"`
		Maand string      `json:"maand"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("authenticate: decode response: %w", err)
	}

	c.mu.Lock()
	c.year = payload.Jaar.String()
	c.month = payload.Maand
	c.mu.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"year":  payload.Jaar.String(),
		"month": payload.Maand,
	}).Debug("Authenticated against pricing API")

	return nil
}

// PriceComponents fetches /data with the given facets and flattens every
// contract's price components into one slice.
func (c *Client) PriceComponents(ctx context.Context, f Facets) ([]PriceComponent, error) {
	c.mu.Lock()
	year, month := c.year, c.month
	c.mu.Unlock()

	fullURL := fmt.Sprintf("%s/data?%s", c.baseURL, f.values(year, month).Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch price components: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch price components: unexpected status code %d", resp.StatusCode)
	}

	var payload struct {
		Data map[string]struct {
			Prijsonderdelen []PriceComponent `json:"prijsonderdelen"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch price components: decode response: %w", err)
	}

	var components []PriceComponent
	for _, contract := range payload.Data {
		components = append(components, contract.Prijsonderdelen...)
	}

	c.logger.WithField("count", len(components)).Debug("Fetched price components")
	return components, nil
}

// Constants fetches postcode-derived constants.
func (c *Client) Constants(ctx context.Context, zipCode string) (map[string]any, error) {
	fullURL := fmt.Sprintf("%s/constants?postcode=%s", c.baseURL, zipCode)

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch constants: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch constants: unexpected status code %d", resp.StatusCode)
	}

	var constants map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&constants); err != nil {
		return nil, fmt.Errorf("fetch constants: decode response: %w", err)
	}

	return constants, nil
}
