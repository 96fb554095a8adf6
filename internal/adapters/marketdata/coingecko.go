package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// coinIDs maps ticker symbols to CoinGecko coin identifiers.
var coinIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
}

// CoinGeckoClient fetches global dominance stats and spot prices from the
// CoinGecko public API.
type CoinGeckoClient struct {
	baseURL    string
	symbols    []string
	httpClient *http.Client
}

// NewCoinGeckoClient creates a client tracking the given symbol set.
// Symbols without a known CoinGecko id are ignored.
func NewCoinGeckoClient(symbols []string, timeout time.Duration) *CoinGeckoClient {
	tracked := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := coinIDs[strings.ToUpper(s)]; ok {
			tracked = append(tracked, strings.ToUpper(s))
		}
	}
	return &CoinGeckoClient{
		baseURL:    coinGeckoBaseURL,
		symbols:    tracked,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type globalResponse struct {
	Data *struct {
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
	} `json:"data"`
}

// Dominance fetches global market-cap distribution stats.
func (c *CoinGeckoClient) Dominance(ctx context.Context) (*domain.Dominance, error) {
	body, err := getJSON(ctx, c.httpClient, c.baseURL+"/global")
	if err != nil {
		return nil, err
	}

	var resp globalResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode global stats response: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("global stats response has no data: %w", ports.ErrExternalFetch)
	}

	d := &domain.Dominance{
		BTC:            resp.Data.MarketCapPercentage["btc"],
		ETH:            resp.Data.MarketCapPercentage["eth"],
		TotalMarketCap: resp.Data.TotalMarketCap["usd"],
	}
	d.Regime, d.Note = interpretDominance(d.BTC)
	return d, nil
}

func interpretDominance(dominance float64) (regime, note string) {
	switch {
	case dominance >= 55:
		return "btc_season", "Money flowing to BTC, alts underperforming"
	case dominance >= 45:
		return "neutral", "Balanced market"
	default:
		return "alt_season", "Money flowing to alts, higher risk/reward"
	}
}

// simplePriceEntry matches one coin's entry in the simple/price response.
type simplePriceEntry struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// geckoStatus is CoinGecko's error envelope, present on rate limiting.
type geckoStatus struct {
	Status *struct {
		ErrorCode int `json:"error_code"`
	} `json:"status"`
}

// Prices fetches quotes with 24h change for the tracked symbol set.
func (c *CoinGeckoClient) Prices(ctx context.Context) (*domain.PriceSet, error) {
	ids := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		ids = append(ids, coinIDs[s])
	}
	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	body, err := getJSON(ctx, c.httpClient, u)
	if err != nil {
		return nil, err
	}

	// Rate-limit responses come back 200 with an error envelope.
	var status geckoStatus
	if err := json.Unmarshal(body, &status); err == nil && status.Status != nil && status.Status.ErrorCode != 0 {
		return nil, fmt.Errorf("coingecko error code %d: %w", status.Status.ErrorCode, ports.ErrExternalFetch)
	}

	var entries map[string]simplePriceEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode simple price response: %w", err)
	}

	ps := &domain.PriceSet{
		Quotes:    make(map[string]domain.Quote, len(c.symbols)),
		Timestamp: time.Now().UTC(),
	}
	for _, sym := range c.symbols {
		entry, ok := entries[coinIDs[sym]]
		if !ok || entry.USD == 0 {
			continue
		}
		ps.Quotes[sym] = domain.Quote{Price: entry.USD, Change24h: entry.USD24hChange}
	}
	if len(ps.Quotes) == 0 {
		return nil, fmt.Errorf("simple price response has no usable quotes: %w", ports.ErrExternalFetch)
	}
	return ps, nil
}

// Price fetches the current spot price for one symbol.
func (c *CoinGeckoClient) Price(ctx context.Context, symbol string) (float64, error) {
	id, ok := coinIDs[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("unknown symbol %s: %w", symbol, ports.ErrPriceUnavailable)
	}
	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, url.QueryEscape(id))

	body, err := getJSON(ctx, c.httpClient, u)
	if err != nil {
		return 0, err
	}

	var status geckoStatus
	if err := json.Unmarshal(body, &status); err == nil && status.Status != nil && status.Status.ErrorCode != 0 {
		return 0, fmt.Errorf("coingecko error code %d: %w", status.Status.ErrorCode, ports.ErrExternalFetch)
	}

	var entries map[string]simplePriceEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return 0, fmt.Errorf("failed to decode simple price response: %w", err)
	}
	entry, ok := entries[id]
	if !ok || entry.USD == 0 {
		return 0, fmt.Errorf("no price for %s: %w", symbol, ports.ErrPriceUnavailable)
	}
	return entry.USD, nil
}
