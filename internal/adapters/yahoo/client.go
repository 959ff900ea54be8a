package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"portfoliobot/internal/ports"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client implements the ports.QuoteSource interface against the Yahoo
// Finance chart API. It reports the most recent daily closing price.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration for the Yahoo quote client.
type Config struct {
	BaseURL    string        // override for tests; defaults to the public endpoint
	Timeout    time.Duration // per-request timeout; defaults to 30s
	HTTPClient *http.Client  // optional; a client with Timeout is built when nil
	Logger     ports.Logger
}

// New creates a new Yahoo quote client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo quote client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: cfg.Logger}, nil
}

// chartResponse mirrors the subset of the chart API payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// LatestClose returns the most recent daily closing price for the ticker.
func (c *Client) LatestClose(ctx context.Context, ticker string) (float64, error) {
	op := "LatestClose"

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build request for %s: %w", op, ticker, err)
	}
	// The chart endpoint rejects requests without a browser-like agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; portfoliobot/1.0)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: request for %s failed: %w: %w", op, ticker, ports.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("%s: %w: %s", op, ports.ErrPriceUnavailable, ticker)
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, fmt.Errorf("%s: %w", op, ports.ErrRateLimited)
	case resp.StatusCode >= 500:
		return 0, fmt.Errorf("%s: %w: http %d", op, ports.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 300:
		return 0, fmt.Errorf("%s: unexpected http %d for %s", op, resp.StatusCode, ticker)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%s: failed to decode chart response for %s: %w", op, ticker, err)
	}

	if payload.Chart.Error != nil {
		c.logger.Debug(ctx, "Chart API returned an error", map[string]interface{}{
			"ticker":      ticker,
			"code":        payload.Chart.Error.Code,
			"description": payload.Chart.Error.Description,
		})
		return 0, fmt.Errorf("%s: %w: %s (%s)", op, ports.ErrPriceUnavailable, ticker, payload.Chart.Error.Code)
	}
	if len(payload.Chart.Result) == 0 {
		return 0, fmt.Errorf("%s: %w: %s", op, ports.ErrPriceUnavailable, ticker)
	}

	result := payload.Chart.Result[0]

	// Prefer the last daily close in the series; fall back to the meta
	// price when the series holds only nulls (e.g. pre-market).
	for _, quote := range result.Indicators.Quote {
		for i := len(quote.Close) - 1; i >= 0; i-- {
			if quote.Close[i] != nil {
				return *quote.Close[i], nil
			}
		}
	}
	if result.Meta.RegularMarketPrice > 0 {
		return result.Meta.RegularMarketPrice, nil
	}

	return 0, fmt.Errorf("%s: %w: %s", op, ports.ErrPriceUnavailable, ticker)
}
