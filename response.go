package apiwrapper

import (
	"net/http"
	"strings"
	"time"
)

// Response is the raw outcome of one HTTP call.
type Response struct {
	// Method is the HTTP verb that was sent.
	Method string

	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	StatusCode int

	// Status is the status line text, e.g. "200 OK".
	Status string

	// Header holds the response headers.
	Header http.Header

	// Body is the response body.
	Body []byte

	// Latency is the time taken by the network call.
	Latency time.Duration
}

// Reason returns the reason phrase of the status, e.g. "Bad Request".
func (r *Response) Reason() string {
	if _, reason, ok := strings.Cut(r.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(r.StatusCode)
}

// RaiseForStatus returns an [*HTTPError] when the status is 4xx or 5xx.
func (r *Response) RaiseForStatus() error {
	if r.StatusCode < 400 {
		return nil
	}
	return &HTTPError{
		Method:     r.Method,
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Reason:     r.Reason(),
		Body:       r.Body,
	}
}

// Result is a response together with its optionally parsed payload.
//
// Payload is nil when parsing failed and the error mode tolerated it, or
// when the body was empty under [Graceful] or [Ignore]. For [FormatJSON]
// the payload is a generic JSON value (objects are map[string]any); for
// [FormatXML] it is the root element of the document.
type Result struct {
	Response *Response
	Payload  any
	Format   ResponseFormat
}

// Parsed reports whether the result carries a payload.
func (r *Result) Parsed() bool {
	return r != nil && r.Payload != nil
}

// Status extracts the completion status field from the payload.
// The boolean is false when there is no payload or no status field.
func (r *Result) Status() (any, bool) {
	if !r.Parsed() {
		return nil, false
	}
	return r.Format.codec().status(r.Payload)
}
