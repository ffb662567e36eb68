package provider

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrNotConfigured is returned when a client has no API key
	ErrNotConfigured = errors.New("provider not configured")

	// ErrGeocodeNoResult is returned when a place cannot be geocoded
	ErrGeocodeNoResult = errors.New("could not geocode location")

	// ErrEmptyCompletion is returned when the model answers with no text
	ErrEmptyCompletion = errors.New("no completion returned")

	// ErrInvalidInput is returned for malformed request data
	ErrInvalidInput = errors.New("invalid provider input")
)

// UpstreamError reports a non-2xx answer from an external API
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
}

// StatusCode returns the upstream HTTP status carried by err, or 0
func StatusCode(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}

const maxErrorBody = 300

func newRestClient(baseURL string, timeout time.Duration) *resty.Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if baseURL != "" {
		c.SetBaseURL(baseURL)
	}
	return c
}

// checkResponse turns a failed response into an UpstreamError and records
// rate limiting on the limiter
func checkResponse(service string, resp *resty.Response, limiter *RateLimiter) error {
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == 429 {
		limiter.RecordRateLimitError(retryAfterSeconds(resp.Header().Get("Retry-After")))
	}

	msg := string(resp.Body())
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return &UpstreamError{Service: service, StatusCode: resp.StatusCode(), Message: msg}
}

func retryAfterSeconds(v string) int {
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if t, err := time.Parse(time.RFC1123, v); err == nil {
		return int(time.Until(t).Seconds()) + 1
	}
	return 0
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
