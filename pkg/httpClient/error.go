package httpClient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyBody is returned by Fetch when a 2xx response carries no text.
var ErrEmptyBody = errors.New("empty response body")

// HTTPError represents an HTTP error with status code and message
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the string representation of the HTTP error
func (e *HTTPError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Message, e.URL)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// statusError builds the error for a non-2xx response.
func statusError(resp *http.Response, rawURL string) error {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		URL:        rawURL,
	}
}

// GetHTTPStatusCode extracts the status code from an HTTP error, or 0 when
// the request never got a response.
func GetHTTPStatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
