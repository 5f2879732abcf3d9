package httpClient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *HTTPError
		want string
	}{
		{
			name: "without url",
			err:  &HTTPError{StatusCode: 404, Message: "Not Found"},
			want: "HTTP 404: Not Found",
		},
		{
			name: "with url",
			err:  &HTTPError{StatusCode: 503, Message: "Service Unavailable", URL: "https://exptv.org/"},
			want: "HTTP 503: Service Unavailable (https://exptv.org/)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("HTTPError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusGone}
	err := statusError(resp, "https://exptv.org/content2/x.mp4")

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("statusError should return *HTTPError, got %T", err)
	}
	if httpErr.Message != "Gone" {
		t.Errorf("Expected message 'Gone', got %q", httpErr.Message)
	}
	if httpErr.URL != "https://exptv.org/content2/x.mp4" {
		t.Errorf("Expected URL to be kept, got %q", httpErr.URL)
	}
}

func TestGetHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"http error", &HTTPError{StatusCode: 404}, 404},
		{"wrapped http error", fmt.Errorf("fetch: %w", &HTTPError{StatusCode: 500}), 500},
		{"empty body", ErrEmptyBody, 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetHTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("GetHTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
