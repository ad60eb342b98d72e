// Package quake relays P2PQuake earthquake information to registered guild
// channels.
package quake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sh1ma/hibikase/internal/health"
)

// Code 551 is the JMA earthquake information record in the P2PQuake feed.
const earthquakeCode = 551

// Event is one earthquake information record from the feed, newest first in
// API responses.
type Event struct {
	ID         string `json:"id"`
	Code       int    `json:"code"`
	Time       string `json:"time"`
	Earthquake struct {
		Time       string `json:"time"`
		MaxScale   int    `json:"maxScale"`
		Hypocenter struct {
			Name      string  `json:"name"`
			Magnitude float64 `json:"magnitude"`
			Depth     int     `json:"depth"`
		} `json:"hypocenter"`
		DomesticTsunami string `json:"domesticTsunami"`
	} `json:"earthquake"`
}

// Client fetches the P2PQuake v2 history API. Calls are paced by the rate
// limiter and their outcomes fed to the health aggregator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	aggregator *health.Aggregator
}

func NewClient(baseURL string, aggregator *health.Aggregator) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// The public feed asks for at most one request per second.
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		aggregator: aggregator,
	}
}

// RecentEvents returns the latest earthquake records, newest first.
func (c *Client) RecentEvents(ctx context.Context) ([]Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/history?codes=%d&limit=20", c.baseURL, earthquakeCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(false)
		return nil, fmt.Errorf("fetching quake history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.record(false)
		return nil, fmt.Errorf("quake API returned status %d", resp.StatusCode)
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		c.record(false)
		return nil, fmt.Errorf("decoding quake history: %w", err)
	}

	c.record(true)
	return events, nil
}

func (c *Client) record(success bool) {
	if c.aggregator != nil {
		c.aggregator.RecordCall(success)
	}
}
