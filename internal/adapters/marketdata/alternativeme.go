// Package marketdata contains clients for the external read-only data
// feeds: sentiment, dominance, funding and spot prices. Any of them may be
// unavailable; callers treat every fetch as independently fallible.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

const alternativeMeURL = "https://api.alternative.me/fng/?limit=1"

// AlternativeMeClient fetches the Fear & Greed index from alternative.me.
type AlternativeMeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAlternativeMeClient creates a new alternative.me client.
func NewAlternativeMeClient(timeout time.Duration) *AlternativeMeClient {
	return &AlternativeMeClient{
		baseURL:    alternativeMeURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// FearGreed fetches the latest index reading with its contrarian
// interpretation.
func (c *AlternativeMeClient) FearGreed(ctx context.Context) (*domain.FearGreed, error) {
	body, err := getJSON(ctx, c.httpClient, c.baseURL)
	if err != nil {
		return nil, err
	}

	var resp fngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode fear & greed response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("fear & greed response has no data: %w", ports.ErrExternalFetch)
	}

	entry := resp.Data[0]
	value, err := strconv.Atoi(entry.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid fear & greed value %q: %w", entry.Value, err)
	}
	var ts time.Time
	if secs, err := strconv.ParseInt(entry.Timestamp, 10, 64); err == nil {
		ts = time.Unix(secs, 0).UTC()
	}

	fg := &domain.FearGreed{
		Value:          value,
		Classification: entry.ValueClassification,
		Timestamp:      ts,
	}
	fg.Signal, fg.Note = interpretFearGreed(value)
	return fg, nil
}

func interpretFearGreed(value int) (signal, note string) {
	switch {
	case value <= 20:
		return "strong_buy", "Extreme fear often marks bottoms"
	case value <= 40:
		return "buy", "Fear can present opportunities"
	case value <= 60:
		return "neutral", "Market sentiment balanced"
	case value <= 80:
		return "sell", "Greed suggests caution"
	default:
		return "strong_sell", "Extreme greed often marks tops"
	}
}

// getJSON performs a GET request and returns the response body.
func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s: %w", resp.StatusCode, url, ports.ErrExternalFetch)
	}
	return body, nil
}
