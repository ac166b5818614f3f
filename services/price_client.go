package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"earn-service/utils"

	"github.com/shopspring/decimal"
)

// PriceOracle returns a token's USD price on a given day.
type PriceOracle interface {
	HistoricalUSDPrice(ctx context.Context, token string, at time.Time) (decimal.Decimal, error)
}

// coinIDs maps listing token symbols to price API coin ids.
var coinIDs = map[string]string{
	"SOL":    "solana",
	"BONK":   "bonk",
	"JUP":    "jupiter-exchange-solana",
	"JTO":    "jito-governance-token",
	"PYTH":   "pyth-network",
	"WIF":    "dogwifcoin",
	"HNT":    "helium",
	"MOBILE": "helium-mobile",
	"ISC":    "international-stable-currency",
	"STORE":  "storefront",
	"mSOL":   "msol",
}

var stablecoins = map[string]bool{"USDC": true, "USDT": true, "PYUSD": true}

// PriceClient talks to a CoinGecko-compatible /coins/{id}/history endpoint.
type PriceClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewPriceClient(baseURL, apiKey string) *PriceClient {
	return &PriceClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: utils.NewHTTPClient(10 * time.Second),
	}
}

type coinHistoryResponse struct {
	MarketData *struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// HistoricalUSDPrice returns the USD price of token on the day of at.
// Stablecoins are pegged at 1 without a network call.
func (c *PriceClient) HistoricalUSDPrice(ctx context.Context, token string, at time.Time) (decimal.Decimal, error) {
	if stablecoins[strings.ToUpper(token)] {
		return decimal.NewFromInt(1), nil
	}
	coinID, ok := coinIDs[token]
	if !ok {
		coinID, ok = coinIDs[strings.ToUpper(token)]
	}
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown token %q", ErrPriceUnavailable, token)
	}

	u, err := url.Parse(fmt.Sprintf("%s/coins/%s/history", c.BaseURL, coinID))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price URL: %w", err)
	}
	q := u.Query()
	q.Set("date", at.UTC().Format("02-01-2006"))
	q.Set("localization", "false")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return decimal.Zero, fmt.Errorf("%w: price API returned %d: %s", ErrPriceUnavailable, resp.StatusCode, string(body))
	}

	var out coinHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price response: %w", err)
	}
	if out.MarketData == nil {
		return decimal.Zero, fmt.Errorf("%w: no market data for %s on %s", ErrPriceUnavailable, coinID, q.Get("date"))
	}
	usd, ok := out.MarketData.CurrentPrice["usd"]
	if !ok || usd <= 0 {
		return decimal.Zero, fmt.Errorf("%w: no usd price for %s", ErrPriceUnavailable, coinID)
	}
	return decimal.NewFromFloat(usd), nil
}
