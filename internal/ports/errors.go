package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown        = errors.New("unknown error occurred")
	ErrInvalidRequest = errors.New("invalid request parameters or format")
	ErrNotFound       = errors.New("resource not found")
	ErrTimeout        = errors.New("operation timed out")
	ErrConfiguration  = errors.New("invalid or missing configuration")

	// Trade Validation Errors
	ErrInvalidAction = errors.New("unrecognized trade action (must be BUY or SELL)")

	// Quote Source Errors
	ErrPriceUnavailable     = errors.New("no recent price data for ticker")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed (check API keys)")
	ErrUnavailable          = errors.New("upstream service is unavailable")

	// Ledger Storage Errors
	ErrStorage      = errors.New("trade ledger storage failure")
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
