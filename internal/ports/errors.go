package ports

import "errors"

// Standard application-level errors.
// Adapters and services wrap underlying errors with these standard kinds so
// callers can branch with errors.Is and decide whether to log and continue.
var (
	// General errors
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Trade execution errors. These are structured failure results: the
	// orchestrator records them and moves on, it never aborts the run.
	ErrInsufficientFunds = errors.New("insufficient cash for trade")
	ErrNoPosition        = errors.New("no open position for symbol")
	ErrPriceUnavailable  = errors.New("no price available for symbol")

	// Learner errors
	ErrUnknownSuggestion = errors.New("unknown suggestion type")

	// External data errors. Recovered locally via cache or nil
	// propagation, never surfaced as fatal.
	ErrExternalFetch = errors.New("external data fetch failed")

	// Database errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
