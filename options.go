package apiwrapper

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// clientConfig holds mutable state during Client construction.
type clientConfig struct {
	format     ResponseFormat
	logger     Logger
	transport  Transport
	httpClient *http.Client
	timeout    time.Duration
	verify     bool
	rateLimit  rate.Limit
	rateBurst  int
}

// Option is a function that configures a [Client] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*clientConfig) error

// WithResponseFormat sets the body format the API responds with.
//
// The format is fixed for the lifetime of the client. Defaults to
// [FormatJSON].
//
// Returns an error if the format is not [FormatJSON] or [FormatXML].
func WithResponseFormat(f ResponseFormat) Option {
	return func(cfg *clientConfig) error {
		if !f.Valid() {
			return &ConfigError{Field: "response format", Value: string(f), Reason: "must be json or xml"}
		}
		cfg.format = f
		return nil
	}
}

// WithLogger sets the logger the client writes request and policy logs to.
//
// Any *slog.Logger works:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	client, err := apiwrapper.New(apiwrapper.WithLogger(logger))
//
// If not specified, [slog.Default] is used. Returns an error if the logger
// is nil.
func WithLogger(logger Logger) Option {
	return func(cfg *clientConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTransport replaces the HTTP transport.
//
// Returns an error if the transport is nil.
func WithTransport(t Transport) Option {
	return func(cfg *clientConfig) error {
		if t == nil {
			return errors.New("transport cannot be nil")
		}
		cfg.transport = t
		return nil
	}
}

// WithHTTPClient makes the default transport send requests through hc.
// The per-request TLS verification switch has no effect in this case;
// hc's own TLS settings apply. Ignored when [WithTransport] is also set.
//
// Returns an error if hc is nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *clientConfig) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = hc
		return nil
	}
}

// WithTimeout sets the default per-request timeout. Requests can override it
// with [WithRequestTimeout]. Defaults to 30 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithTLSVerification sets the default for certificate verification.
// Requests can override it with [WithVerifyTLS]. Defaults to true.
func WithTLSVerification(verify bool) Option {
	return func(cfg *clientConfig) error {
		cfg.verify = verify
		return nil
	}
}

// WithRateLimit paces outgoing calls to at most perSecond requests per
// second with the given burst. Each dispatch waits for a token before its
// network call; the wait honours context cancellation.
//
// Use this to stay under an API's quota instead of relying on HTTP 429.
//
// Returns an error if perSecond or burst is not positive.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cfg *clientConfig) error {
		if perSecond <= 0 {
			return errors.New("rate limit must be positive")
		}
		if burst <= 0 {
			return errors.New("rate limit burst must be positive")
		}
		cfg.rateLimit = rate.Limit(perSecond)
		cfg.rateBurst = burst
		return nil
	}
}
