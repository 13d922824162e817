package main

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned before any backend activity when the search
// text is blank.
var ErrEmptyQuery = errors.New("search query must not be empty")

// ConfigError reports a missing backend credential. It is surfaced before
// any network activity and is not retryable.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Missing)
}

// UpstreamError reports that every planned backend request failed. It
// wraps the first failure for diagnostics.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("image search failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
