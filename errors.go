package apiwrapper

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jpalmerr/apiwrapper/internal/transport"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrConfiguration indicates invalid caller configuration, such as an
	// unknown error mode. It is raised before any network activity.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyResponse indicates the response had no body.
	ErrEmptyResponse = errors.New("response has no content")

	// ErrInvalidResponse indicates the body could not be parsed in the
	// client's response format.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrRateLimited matches HTTP 429 responses.
	ErrRateLimited = errors.New("too many requests in the last minute")

	// ErrExceededRetries indicates a strict poll exhausted its attempt budget.
	ErrExceededRetries = errors.New("exceeded retries")

	// ErrMissingParameter indicates a callback contract required a parameter
	// the caller did not pass.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameter indicates a parameter outside a callback contract.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrMissingStatus indicates a parsed poll response had no recognizable
	// status field.
	ErrMissingStatus = errors.New("unable to get poll response status")

	// ErrNoPollURL indicates a session-creating response did not say where
	// to poll.
	ErrNoPollURL = errors.New("no poll url in session response")

	// ErrBodyTooLarge indicates the default transport refused a response
	// body over 10MB. It arrives wrapped in a [*TransportError], so no
	// error mode suppresses it.
	ErrBodyTooLarge = transport.ErrBodyTooLarge
)

// ConfigError describes an invalid configuration value.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is [ErrConfiguration].
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// ParseError is returned when a body is not valid for the response format.
// Snippet holds the first 100 bytes of the offending body.
type ParseError struct {
	Format  ResponseFormat
	Snippet []byte
	Err     error
}

const parseSnippetSize = 100

func newParseError(format ResponseFormat, body []byte, err error) *ParseError {
	snippet := body
	if len(snippet) > parseSnippetSize {
		snippet = snippet[:parseSnippetSize]
	}
	return &ParseError{
		Format:  format,
		Snippet: append([]byte(nil), snippet...),
		Err:     err,
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s in response: %s...: %v",
		strings.ToUpper(string(e.Format)), e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is [ErrInvalidResponse].
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidResponse
}

// HTTPError represents a 4xx or 5xx response.
//
// For 400 responses carrying validation errors, Messages holds every
// validation message and the error text lists them under the base error.
// For 429 responses the text notes the rate limit.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Reason     string
	Messages   []string
	Body       []byte
}

func (e *HTTPError) Error() string {
	kind := "Client Error"
	if e.StatusCode >= 500 {
		kind = "Server Error"
	}
	base := fmt.Sprintf("%d %s: %s for url: %s", e.StatusCode, kind, e.Reason, e.URL)

	switch {
	case e.StatusCode == http.StatusBadRequest && len(e.Messages) > 0:
		return base + ": " + strings.Join(e.Messages, "\n\t")
	case e.StatusCode == http.StatusTooManyRequests:
		return base + ": " + ErrRateLimited.Error()
	default:
		return base
	}
}

// Is reports whether target is [ErrRateLimited] for a 429 response.
func (e *HTTPError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// AsHTTPError extracts an [*HTTPError] from err.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// IsHTTPStatus reports whether err is an [*HTTPError] with the given code.
func IsHTTPStatus(err error, code int) bool {
	he, ok := AsHTTPError(err)
	return ok && he.StatusCode == code
}

// TransportError represents a connectivity failure. No error mode
// suppresses it.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExceededRetriesError is returned by a strict poll that never completed.
type ExceededRetriesError struct {
	URL   string
	Tries int
}

func (e *ExceededRetriesError) Error() string {
	return fmt.Sprintf("failed to poll %s within %d tries", e.URL, e.Tries)
}

// Is reports whether target is [ErrExceededRetries].
func (e *ExceededRetriesError) Is(target error) bool {
	return target == ErrExceededRetries
}

// ParameterError reports a callback contract violation.
type ParameterError struct {
	Name    string
	Missing bool
}

func (e *ParameterError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing parameter %q", e.Name)
	}
	return fmt.Sprintf("invalid parameter %q", e.Name)
}

// Is matches [ErrMissingParameter] or [ErrInvalidParameter].
func (e *ParameterError) Is(target error) bool {
	if e.Missing {
		return target == ErrMissingParameter
	}
	return target == ErrInvalidParameter
}

// CallbackPanicError is returned when a callback panicked. The full stack
// is logged under CorrelationID.
type CallbackPanicError struct {
	CorrelationID string
	Value         any
}

func (e *CallbackPanicError) Error() string {
	return fmt.Sprintf("callback panic: %v (correlation_id: %s)", e.Value, e.CorrelationID)
}
