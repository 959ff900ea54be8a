package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"portfoliobot/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// Client implements the ports.QuoteSource interface for crypto tickers
// using the go-binance library. Spot symbols trade continuously, so the
// "latest close" reported here is the most recent traded price.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance quote adapter.
// API keys are optional: the price endpoints are public.
type Config struct {
	APIKey    string
	SecretKey string
	Logger    ports.Logger
}

// New creates a new Binance quote adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	return &Client{
		spotClient: binance.NewClient(cfg.APIKey, cfg.SecretKey),
		logger:     cfg.Logger,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation, ticker string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "ticker": ticker, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1100, -1121: // Illegal characters / invalid symbol
			mappedErr = ports.ErrPriceUnavailable
		case -2014, -2015: // API-key format invalid / invalid key or permissions
			mappedErr = ports.ErrAuthenticationFailed
		default:
			mappedErr = ports.ErrUnavailable
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnavailable, err)
}

// LatestClose returns the most recent traded price for a spot symbol.
func (c *Client) LatestClose(ctx context.Context, ticker string) (float64, error) {
	op := "LatestClose"

	prices, err := c.spotClient.NewListPricesService().Symbol(ticker).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op, ticker)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("%s: %w: %s", op, ports.ErrPriceUnavailable, ticker)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse price '%s': %w", prices[0].Price, err)
		return 0, c.handleError(ctx, parseErr, op, ticker)
	}
	return price, nil
}
