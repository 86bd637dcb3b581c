package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrMissingCredentials = errors.New("missing provider credentials")
	ErrInvalidPosition    = errors.New("invalid watchlist position")
	ErrScanInProgress     = errors.New("a scan is already in progress")
	ErrNoActiveQuery      = errors.New("no discovery query has been run")
	ErrInvalidURL         = errors.New("url must be an absolute http or https url")
	ErrEmptyQuery         = errors.New("query must not be empty")

	// returned by providers; folded into outcomes, never surfaced to callers
	ErrRateLimited = errors.New("provider rate limited the request")
	ErrBlocked     = errors.New("target blocked automated access")
	ErrTimeout     = errors.New("operation exceeded its time budget")
)
