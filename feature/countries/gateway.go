package countries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"country-cache/feature/countries/models"

	"golang.org/x/sync/errgroup"
)

// Feed names used to attribute failures to the right upstream.
const (
	CountryFeed = "Country API"
	RateFeed    = "Exchange Rate API"
)

// FeedError reports that one of the upstream feeds was unavailable.
// StatusCode is zero for transport-level failures (connect, timeout).
type FeedError struct {
	Feed       string
	StatusCode int
	Err        error
}

func (e *FeedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d", e.Feed, e.StatusCode)
	}
	return fmt.Sprintf("%s unreachable: %v", e.Feed, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// Detail returns the human-readable reason surfaced at the HTTP boundary.
func (e *FeedError) Detail() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Could not fetch data from %s.", e.Feed)
	}
	return fmt.Sprintf("Could not connect to %s.", e.Feed)
}

// Gateway fetches the two upstream feeds. Both requests run concurrently and
// both must succeed; a failure of either aborts the other and surfaces a
// single FeedError. No retry is performed at this layer.
type Gateway struct {
	client       *http.Client
	countriesURL string
	ratesURL     string
	timeout      time.Duration
}

// NewGateway creates a gateway over the given HTTP client.
func NewGateway(client *http.Client, cfg Config) *Gateway {
	timeout := cfg.FetchTimeoutSeconds
	if timeout <= 0 {
		timeout = 15
	}
	return &Gateway{
		client:       client,
		countriesURL: cfg.CountriesURL,
		ratesURL:     cfg.RatesURL,
		timeout:      time.Duration(timeout) * time.Second,
	}
}

// ratesResponse is the exchange-rate feed payload.
type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Fetch retrieves the raw country list and the currency->rate mapping.
func (g *Gateway) Fetch(ctx context.Context) ([]models.CountryEntry, map[string]float64, error) {
	var (
		entries []models.CountryEntry
		rates   ratesResponse
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return g.get(ctx, g.countriesURL, CountryFeed, &entries)
	})
	eg.Go(func() error {
		return g.get(ctx, g.ratesURL, RateFeed, &rates)
	})

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	if rates.Rates == nil {
		rates.Rates = map[string]float64{}
	}
	return entries, rates.Rates, nil
}

// get performs one bounded GET and decodes the JSON body into out.
// Any failure is attributed to the named feed.
func (g *Gateway) get(ctx context.Context, url, feed string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FeedError{Feed: feed, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return &FeedError{Feed: feed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FeedError{Feed: feed, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FeedError{Feed: feed, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	return nil
}
