package apiwrapper

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jpalmerr/apiwrapper/internal/transport"
)

const defaultRequestTimeout = 30 * time.Second

// Logger is the logging capability a [Client] writes to.
//
// *slog.Logger satisfies it. Arguments are alternating key-value pairs as
// with slog.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Transport performs exactly one HTTP call per Do.
//
// Do returns an error only for connectivity failures; 4xx and 5xx statuses
// are returned as a normal [Response]. The default transport is backed by
// net/http. Supply a custom one with [WithTransport].
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Client is a thin wrapper around a REST-style API.
//
// Client issues single calls with [Client.Dispatch] and runs
// create-then-poll workflows with [Client.Poll]. It is created using [New]
// with functional options. The response format is fixed at construction.
//
// Client holds no per-call state; one Client may be used from multiple
// goroutines, each running its own dispatches and polls.
//
// Example:
//
//	client, err := apiwrapper.New(
//	    apiwrapper.WithResponseFormat(apiwrapper.FormatXML),
//	    apiwrapper.WithTimeout(10 * time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	result, err := client.Dispatch(ctx, "https://api.example.com/countries",
//	    apiwrapper.WithParam("apiKey", key),
//	)
type Client struct {
	format    ResponseFormat
	codec     codec
	transport Transport
	logger    Logger
	limiter   *rate.Limiter
	timeout   time.Duration
	verify    bool
}

// New creates a new [Client] with the given options.
//
// Defaults:
//   - Response format: JSON
//   - Request timeout: 30 seconds
//   - TLS verification: enabled
//   - Logger: [slog.Default]
//   - Transport: pooled net/http transport
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		format:  FormatJSON,
		timeout: defaultRequestTimeout,
		verify:  true,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	tr := cfg.transport
	if tr == nil {
		hc := transport.NewClient()
		if cfg.httpClient != nil {
			hc = transport.NewClientWith(cfg.httpClient)
		}
		tr = &httpTransport{client: hc}
	}

	var limiter *rate.Limiter
	if cfg.rateLimit > 0 {
		limiter = rate.NewLimiter(cfg.rateLimit, cfg.rateBurst)
	}

	return &Client{
		format:    cfg.format,
		codec:     cfg.format.codec(),
		transport: tr,
		logger:    logger,
		limiter:   limiter,
		timeout:   cfg.timeout,
		verify:    cfg.verify,
	}, nil
}

// Format returns the client's response format.
func (c *Client) Format() ResponseFormat {
	return c.format
}

// Headers returns the headers the poller sends, an Accept header matching
// the response format. A new map is returned on every call.
func (c *Client) Headers() map[string]string {
	return map[string]string{"Accept": c.format.MediaType()}
}

// Close releases idle connections held by the default transport.
// Custom transports are closed when they implement Close().
func (c *Client) Close() {
	if closer, ok := c.transport.(interface{ Close() }); ok {
		closer.Close()
	}
}

// httpTransport adapts the internal net/http transport to [Transport].
type httpTransport struct {
	client *transport.Client
}

func (t *httpTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	resp := t.client.Fetch(ctx, transport.Request{
		Method:  req.Method,
		URL:     req.URL,
		Headers: req.Headers,
		Body:    req.Body,
		Params:  req.Params,
		Verify:  req.Verify,
		Timeout: req.Timeout,
	})
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &Response{
		Method:     req.Method,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       resp.Body,
		Latency:    resp.Latency,
	}, nil
}

func (t *httpTransport) Close() {
	t.client.Close()
}

// compile-time check
var _ Transport = (*httpTransport)(nil)

// ensure *slog.Logger keeps satisfying Logger
var _ Logger = (*slog.Logger)(nil)
