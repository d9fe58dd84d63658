package apiwrapper

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// supportedMethods are the verbs the transport exposes.
var supportedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// requestConfig holds mutable state while a dispatch is being prepared.
type requestConfig struct {
	method    string
	headers   map[string]string
	body      []byte
	params    url.Values
	errorMode ErrorMode
	callback  Callback
	verify    *bool
	timeout   time.Duration
}

func newRequestConfig() *requestConfig {
	return &requestConfig{
		method:    http.MethodGet,
		headers:   make(map[string]string),
		params:    make(url.Values),
		errorMode: Strict,
	}
}

// RequestOption configures a single [Client.Dispatch] call.
//
// Options return an error if validation fails; such errors are returned by
// Dispatch before any network activity.
type RequestOption func(*requestConfig) error

// WithMethod sets the HTTP verb, case-insensitively. Defaults to GET.
//
// Returns a [*ConfigError] if the verb is not one of GET, HEAD, POST, PUT,
// PATCH, DELETE or OPTIONS.
func WithMethod(method string) RequestOption {
	return func(cfg *requestConfig) error {
		m := strings.ToUpper(strings.TrimSpace(method))
		if !supportedMethods[m] {
			return &ConfigError{Field: "method", Value: method, Reason: "unsupported HTTP method"}
		}
		cfg.method = m
		return nil
	}
}

// WithHeader sets one request header.
func WithHeader(key, value string) RequestOption {
	return func(cfg *requestConfig) error {
		if key == "" {
			return errors.New("header name cannot be empty")
		}
		cfg.headers[key] = value
		return nil
	}
}

// WithHeaders sets request headers from variadic key-value pairs.
//
// Example:
//
//	client.Dispatch(ctx, u, apiwrapper.WithHeaders("Authorization", "Bearer token"))
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) RequestOption {
	return func(cfg *requestConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithBody sets the raw request body.
func WithBody(body []byte) RequestOption {
	return func(cfg *requestConfig) error {
		cfg.body = body
		return nil
	}
}

// WithForm sets a form-encoded request body and its Content-Type header.
// Values are rendered like query parameters (see [WithParam]).
func WithForm(fields map[string]any) RequestOption {
	return func(cfg *requestConfig) error {
		cfg.body = []byte(toValues(fields).Encode())
		cfg.headers["Content-Type"] = "application/x-www-form-urlencoded"
		return nil
	}
}

// WithParam adds a query parameter. Scalar values (strings, booleans,
// numbers, times) are rendered to text; a []string adds the key once per
// element. Repeated calls with the same key replace the earlier value.
func WithParam(key string, value any) RequestOption {
	return func(cfg *requestConfig) error {
		if key == "" {
			return errors.New("parameter name cannot be empty")
		}
		cfg.params[key] = formatParam(value)
		return nil
	}
}

// WithParams adds every entry of params as a query parameter.
func WithParams(params map[string]any) RequestOption {
	return func(cfg *requestConfig) error {
		for k, v := range params {
			if k == "" {
				return errors.New("parameter name cannot be empty")
			}
			cfg.params[k] = formatParam(v)
		}
		return nil
	}
}

// withValues adds already rendered parameters.
func withValues(values url.Values) RequestOption {
	return func(cfg *requestConfig) error {
		for k, vv := range values {
			cfg.params[k] = append([]string(nil), vv...)
		}
		return nil
	}
}

// WithErrorMode selects the error-handling mode by name: "strict",
// "graceful" or "ignore", case-insensitively. An empty name selects
// graceful. Without this option a dispatch is strict.
//
// Returns a [*ConfigError] for any other name.
func WithErrorMode(mode string) RequestOption {
	return func(cfg *requestConfig) error {
		m, err := ParseErrorMode(mode)
		if err != nil {
			return err
		}
		cfg.errorMode = m
		return nil
	}
}

// WithCallback replaces the default parsing callback. Use [Contract.Bind]
// to declare which parameters the callback accepts.
//
// Returns a [*ConfigError] if cb is nil.
func WithCallback(cb Callback) RequestOption {
	return func(cfg *requestConfig) error {
		if cb == nil {
			return &ConfigError{Field: "callback", Value: "<nil>", Reason: "callback cannot be nil"}
		}
		cfg.callback = cb
		return nil
	}
}

// WithVerifyTLS overrides the client's TLS verification default for this
// request.
func WithVerifyTLS(verify bool) RequestOption {
	return func(cfg *requestConfig) error {
		cfg.verify = &verify
		return nil
	}
}

// WithRequestTimeout overrides the client's timeout for this request.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(cfg *requestConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}
