// Package mboum provides a typed client for the Mboum market data API.
// All responses are parsed strictly at this boundary: records that fail to
// parse are dropped with a warning, never passed deeper as untyped maps.
package mboum

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ziamudasar52-stack/deep-Bot/internal/logger"
	"github.com/ziamudasar52-stack/deep-Bot/internal/models"
)

// Client provides access to the Mboum REST API.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a client. timeout bounds every request; transient
// transport and 5xx failures are retried with linear backoff.
func NewClient(baseURL, apiKey string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// quoteRecord mirrors one screener row.
type quoteRecord struct {
	Symbol    string     `json:"symbol"`
	Price     flexNumber `json:"regularMarketPrice"`
	ChangePct flexNumber `json:"regularMarketChangePercent"`
	Volume    flexNumber `json:"regularMarketVolume"`
	Bid       flexNumber `json:"bid"`
	BidSize   flexNumber `json:"bidSize"`
	Ask       flexNumber `json:"ask"`
	AskSize   flexNumber `json:"askSize"`
}

func (r quoteRecord) toQuote(now time.Time) (models.Quote, error) {
	q := models.Quote{Symbol: strings.TrimSpace(r.Symbol), FetchedAt: now}

	var err error
	if q.Price, err = r.Price.Decimal(); err != nil {
		return models.Quote{}, fmt.Errorf("bad price: %w", err)
	}
	if q.ChangePct, err = r.ChangePct.Float64(); err != nil {
		return models.Quote{}, fmt.Errorf("bad change percent: %w", err)
	}
	if q.Volume, err = r.Volume.Int64(); err != nil {
		return models.Quote{}, fmt.Errorf("bad volume: %w", err)
	}
	if q.Bid, err = r.Bid.Decimal(); err != nil {
		return models.Quote{}, fmt.Errorf("bad bid: %w", err)
	}
	if q.BidSize, err = r.BidSize.Int64(); err != nil {
		return models.Quote{}, fmt.Errorf("bad bid size: %w", err)
	}
	if q.Ask, err = r.Ask.Decimal(); err != nil {
		return models.Quote{}, fmt.Errorf("bad ask: %w", err)
	}
	if q.AskSize, err = r.AskSize.Int64(); err != nil {
		return models.Quote{}, fmt.Errorf("bad ask size: %w", err)
	}
	if err := q.Validate(); err != nil {
		return models.Quote{}, err
	}
	return q, nil
}

// FetchTopMovers retrieves the day-gainers screener, limited to limit
// instruments. Invalid rows are skipped; the rest of the batch is still
// returned.
func (c *Client) FetchTopMovers(ctx context.Context, limit int) ([]models.Quote, error) {
	q := url.Values{}
	q.Set("metricType", "overview")
	q.Set("filter", "day_gainers")
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Body []quoteRecord `json:"body"`
	}
	if err := c.get(ctx, "/v1/screener", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch screener: %w", err)
	}

	now := time.Now()
	quotes := make([]models.Quote, 0, len(resp.Body))
	for _, rec := range resp.Body {
		quote, err := rec.toQuote(now)
		if err != nil {
			logger.Warn("Dropping screener record %q: %v", rec.Symbol, err)
			continue
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// tradeRecord mirrors one insider-trade filing row.
type tradeRecord struct {
	Symbol          string     `json:"symbol"`
	Insider         string     `json:"insiderName"`
	TransactionType string     `json:"transactionType"`
	Shares          flexNumber `json:"shares"`
	Price           flexNumber `json:"price"`
	FilingDate      string     `json:"filingDate"`
}

func (r tradeRecord) toTrade(symbol string) (models.InsiderTrade, error) {
	t := models.InsiderTrade{
		Symbol:  strings.TrimSpace(r.Symbol),
		Insider: strings.TrimSpace(r.Insider),
	}
	if t.Symbol == "" {
		t.Symbol = symbol
	}

	if strings.Contains(strings.ToLower(r.TransactionType), "sale") {
		t.Side = models.SideSell
	} else {
		t.Side = models.SideBuy
	}

	var err error
	if t.Shares, err = r.Shares.Int64(); err != nil {
		return models.InsiderTrade{}, fmt.Errorf("bad shares: %w", err)
	}
	if t.Price, err = r.Price.Decimal(); err != nil {
		return models.InsiderTrade{}, fmt.Errorf("bad price: %w", err)
	}
	if r.FilingDate != "" {
		if filed, err := time.Parse("2006-01-02", r.FilingDate); err == nil {
			t.FiledAt = filed
		}
	}
	if err := t.Validate(); err != nil {
		return models.InsiderTrade{}, err
	}
	return t, nil
}

// FetchInsiderTrades retrieves recent insider filings, optionally filtered
// by symbol.
func (c *Client) FetchInsiderTrades(ctx context.Context, symbol string) ([]models.InsiderTrade, error) {
	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", symbol)
	}

	var resp struct {
		Body []tradeRecord `json:"body"`
	}
	if err := c.get(ctx, "/v1/markets/insider-trades", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch insider trades: %w", err)
	}

	trades := make([]models.InsiderTrade, 0, len(resp.Body))
	for _, rec := range resp.Body {
		trade, err := rec.toTrade(symbol)
		if err != nil {
			logger.Warn("Dropping insider trade record for %q: %v", rec.Symbol, err)
			continue
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// optionRecord mirrors one unusual-options-activity row.
type optionRecord struct {
	Symbol       string     `json:"symbol"`
	Contract     string     `json:"optionSymbol"`
	Strike       flexNumber `json:"strike"`
	Volume       flexNumber `json:"volume"`
	OpenInterest flexNumber `json:"openInterest"`
}

func (r optionRecord) toActivity() (models.OptionActivity, error) {
	o := models.OptionActivity{
		Symbol:   strings.TrimSpace(r.Symbol),
		Contract: strings.TrimSpace(r.Contract),
	}

	var err error
	if o.Strike, err = r.Strike.Decimal(); err != nil {
		return models.OptionActivity{}, fmt.Errorf("bad strike: %w", err)
	}
	if o.Volume, err = r.Volume.Int64(); err != nil {
		return models.OptionActivity{}, fmt.Errorf("bad volume: %w", err)
	}
	if o.OpenInterest, err = r.OpenInterest.Int64(); err != nil {
		return models.OptionActivity{}, fmt.Errorf("bad open interest: %w", err)
	}
	if err := o.Validate(); err != nil {
		return models.OptionActivity{}, err
	}
	return o, nil
}

// FetchUnusualOptions retrieves the unusual-options-activity dataset.
func (c *Client) FetchUnusualOptions(ctx context.Context) ([]models.OptionActivity, error) {
	var resp struct {
		Body []optionRecord `json:"body"`
	}
	if err := c.get(ctx, "/v1/markets/options/unusual-options-activity", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch unusual options: %w", err)
	}

	activity := make([]models.OptionActivity, 0, len(resp.Body))
	for _, rec := range resp.Body {
		o, err := rec.toActivity()
		if err != nil {
			logger.Warn("Dropping option activity record for %q: %v", rec.Symbol, err)
			continue
		}
		activity = append(activity, o)
	}
	return activity, nil
}

// FetchHaltStatus reports whether the symbol is currently halted. An
// absent record means not halted.
func (c *Client) FetchHaltStatus(ctx context.Context, symbol string) (bool, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var resp struct {
		Body []struct {
			Symbol string `json:"symbol"`
			Status string `json:"haltStatus"`
		} `json:"body"`
	}
	if err := c.get(ctx, "/v1/markets/halts", q, &resp); err != nil {
		return false, fmt.Errorf("failed to fetch halt status: %w", err)
	}

	for _, rec := range resp.Body {
		if !strings.EqualFold(strings.TrimSpace(rec.Symbol), symbol) {
			continue
		}
		status := strings.ToUpper(strings.TrimSpace(rec.Status))
		if status == "H" || status == "HALTED" {
			return true, nil
		}
	}
	return false, nil
}

// get performs an authorized GET with linear-backoff retry on transport
// errors and 5xx responses, then decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
