package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxResponseBodySize = 10 << 20 // 10MB

// ErrBodyTooLarge is set as [Response.Error] when the response body is
// longer than 10MB.
var ErrBodyTooLarge = errors.New("response body exceeds 10MB")

// connection pooling limits shared by the verifying and non-verifying transports
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Request describes a single HTTP call.
type Request struct {
	// Method is the HTTP verb. Empty defaults to GET.
	Method string

	// URL is the absolute target URL. Params are merged into its query.
	URL string

	// Headers are set on the outgoing request.
	Headers map[string]string

	// Body is sent as the request body when non-nil.
	Body []byte

	// Params are appended to the URL query string.
	Params url.Values

	// Verify enables TLS certificate verification.
	Verify bool

	// Timeout bounds the whole call. Zero means no per-request timeout.
	Timeout time.Duration
}

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status code. Zero if the request failed
	// before receiving a response.
	StatusCode int

	// Status is the status line text, e.g. "200 OK".
	Status string

	// Header holds the response headers.
	Header http.Header

	// Body contains the HTTP response body. Bodies over 10MB are not
	// returned; Error is [ErrBodyTooLarge] instead.
	Body []byte

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any connectivity error that occurred during the request.
	// nil indicates the request completed (though status may indicate an error).
	Error error
}

// Client performs HTTP calls for apiwrapper.
//
// Client uses per-request timeouts via context rather than a global timeout,
// and keeps two pooled http.Clients: one verifying TLS certificates and one
// that skips verification for requests that opt out.
type Client struct {
	verifying *http.Client
	insecure  *http.Client
}

// NewClient creates a new transport [Client] with pooled connections.
func NewClient() *Client {
	return &Client{
		verifying: &http.Client{Transport: newHTTPTransport(false)},
		insecure:  &http.Client{Transport: newHTTPTransport(true)},
	}
}

// NewClientWith wraps an existing http.Client. Both verifying and
// non-verifying requests use it unchanged.
func NewClientWith(hc *http.Client) *Client {
	return &Client{verifying: hc, insecure: hc}
}

func newHTTPTransport(skipVerify bool) *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}
	if skipVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // caller opted out of verification
	}
	return t
}

// Fetch performs one HTTP request and returns a structured [Response].
//
// Fetch always returns a Response; connectivity errors are captured in the
// Error field rather than returned separately. Non-2xx statuses are not
// errors at this layer.
func (c *Client) Fetch(ctx context.Context, req Request) Response {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := withParams(req.URL, req.Params)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("invalid url: %w", err),
		}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	hc := c.verifying
	if !req.Verify {
		hc = c.insecure
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return Response{
			URL:     target,
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	// read one byte past the limit to tell a full body from a cut one
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err == nil && len(data) > maxResponseBodySize {
		err = ErrBodyTooLarge
	}
	if err != nil {
		if !errors.Is(err, ErrBodyTooLarge) {
			err = fmt.Errorf("failed to read response body: %w", err)
		}
		return Response{
			URL:        finalURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header,
			Latency:    time.Since(start),
			Error:      err,
		}
	}

	return Response{
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pools.
// Safe to call multiple times and on a nil receiver.
func (c *Client) Close() {
	if c == nil {
		return
	}
	for _, hc := range []*http.Client{c.verifying, c.insecure} {
		if hc != nil {
			hc.CloseIdleConnections()
		}
	}
}

// withParams merges params into the query string of rawURL.
func withParams(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if len(params) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, vv := range params {
		for _, v := range vv {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
