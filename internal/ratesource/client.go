package ratesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"remit-rates/internal/history"
)

const (
	simplePricePath = "/simple/price"
	marketChartPath = "/coins/%s/market_chart"
)

// Options parameterise the rate source client.
type Options struct {
	BaseURL           string
	QuoteCurrency     string
	ReferenceCurrency string
	Timeout           time.Duration
	UserAgent         string
}

// Client fetches rates and history from a CoinGecko-compatible price API.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a rate source client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	if opts.QuoteCurrency == "" {
		opts.QuoteCurrency = "ngn"
	}
	if opts.ReferenceCurrency == "" {
		opts.ReferenceCurrency = "usd"
	}
	opts.QuoteCurrency = strings.ToLower(opts.QuoteCurrency)
	opts.ReferenceCurrency = strings.ToLower(opts.ReferenceCurrency)

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "rate_source").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// MissingAssetsError reports assets absent from an otherwise valid payload.
// The rates that were present accompany the error so callers can apply them.
type MissingAssetsError struct {
	Missing []AssetID
}

func (e *MissingAssetsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, a := range e.Missing {
		names[i] = string(a)
	}
	return fmt.Sprintf("rate payload missing assets: %s", strings.Join(names, ", "))
}

// FetchRates retrieves current prices for the given assets.
//
// A payload that covers only some of the requested assets returns the present
// rates together with a *MissingAssetsError naming the rest.
func (c *Client) FetchRates(ctx context.Context, assets []AssetID) (map[AssetID]Rate, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("no assets requested")
	}

	ids := make([]string, len(assets))
	for i, a := range assets {
		ids[i] = string(a)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", c.opts.QuoteCurrency+","+c.opts.ReferenceCurrency)
	query.Set("include_24hr_change", "true")

	payload, err := c.get(ctx, c.baseURL+simplePricePath+"?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var body map[string]map[string]json.Number
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decode rate payload: %w", err)
	}

	changeKey := c.opts.QuoteCurrency + "_24h_change"
	rates := make(map[AssetID]Rate, len(assets))
	var missing []AssetID
	for _, asset := range assets {
		fields, ok := body[string(asset)]
		if !ok {
			missing = append(missing, asset)
			continue
		}

		quote, err := parseField(fields, c.opts.QuoteCurrency)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset, err)
		}
		reference, err := parseField(fields, c.opts.ReferenceCurrency)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset, err)
		}

		rate := Rate{QuotePrice: quote, ReferencePrice: reference}
		if raw, ok := fields[changeKey]; ok {
			if change, err := decimal.NewFromString(raw.String()); err == nil {
				rate.Change24h = &change
			}
		}
		rates[asset] = rate
	}

	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return rates, &MissingAssetsError{Missing: missing}
	}
	return rates, nil
}

// FetchHistory retrieves an ordered (timestamp, price) series for one asset
// over the given lookback window in days.
func (c *Client) FetchHistory(ctx context.Context, asset AssetID, days int) ([]history.Point, error) {
	if asset == "" {
		return nil, fmt.Errorf("asset id required")
	}
	if days <= 0 {
		return nil, fmt.Errorf("lookback days must be positive")
	}

	query := url.Values{}
	query.Set("vs_currency", c.opts.QuoteCurrency)
	query.Set("days", fmt.Sprintf("%d", days))

	endpoint := c.baseURL + fmt.Sprintf(marketChartPath, url.PathEscape(string(asset))) + "?" + query.Encode()
	payload, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var body struct {
		Prices [][2]json.Number `json:"prices"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decode history payload: %w", err)
	}

	points := make([]history.Point, 0, len(body.Prices))
	for i, pair := range body.Prices {
		ts, err := pair[0].Int64()
		if err != nil {
			tsFloat, ferr := pair[0].Float64()
			if ferr != nil {
				return nil, fmt.Errorf("history point %d: bad timestamp %q", i, pair[0])
			}
			ts = int64(tsFloat)
		}
		price, err := pair[1].Float64()
		if err != nil {
			return nil, fmt.Errorf("history point %d: bad price %q", i, pair[1])
		}
		points = append(points, history.Point{TS: time.UnixMilli(ts).UTC(), Price: price})
	}
	return points, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "ratewatcher/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}
	return payload, nil
}

func parseField(fields map[string]json.Number, key string) (decimal.Decimal, error) {
	raw, ok := fields[key]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("missing %q field", key)
	}
	value, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("non-numeric %q field: %w", key, err)
	}
	return value, nil
}

type errorResponse struct {
	Error  string `json:"error"`
	Status struct {
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("rate source error (%d): %s", status, apiErr.Error)
		}
		if apiErr.Status.ErrorMessage != "" {
			return fmt.Errorf("rate source error (%d): %s", status, apiErr.Status.ErrorMessage)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("rate source error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("rate source error (%d)", status)
}

var _ RateFetcher = (*Client)(nil)
var _ HistoryFetcher = (*Client)(nil)
