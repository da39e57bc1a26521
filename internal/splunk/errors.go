package splunk

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying Splunk API failures. Callers use
// errors.Is to distinguish auth problems from search failures.
var (
	ErrUnauthorized = errors.New("splunk: authentication failed")
	ErrConnection   = errors.New("splunk: connection failed")
	ErrSearchFailed = errors.New("splunk: search failed")
)

// APIError represents a non-2xx response from the Splunk REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("splunk API request failed with status %d: %s", e.StatusCode, e.Body)
}
