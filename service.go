package apiwrapper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SessionLocator extracts the poll URL from a session-creation result.
type SessionLocator func(r *Result) (string, error)

// serviceConfig holds mutable state during Service construction.
type serviceConfig struct {
	params  url.Values
	locator SessionLocator
}

// ServiceOption configures a [Service] during construction.
type ServiceOption func(*serviceConfig) error

// WithServiceParam adds a parameter sent with every call of the service,
// typically an API key.
func WithServiceParam(key string, value any) ServiceOption {
	return func(cfg *serviceConfig) error {
		if key == "" {
			return errors.New("parameter name cannot be empty")
		}
		cfg.params[key] = formatParam(value)
		return nil
	}
}

// WithServiceParams adds every entry of params as a fixed service parameter.
func WithServiceParams(params map[string]any) ServiceOption {
	return func(cfg *serviceConfig) error {
		for k, v := range params {
			if k == "" {
				return errors.New("parameter name cannot be empty")
			}
			cfg.params[k] = formatParam(v)
		}
		return nil
	}
}

// WithSessionLocator replaces [LocationHeader] as the way
// [Service.CreateSession] finds the poll URL.
//
// Returns an error if fn is nil.
func WithSessionLocator(fn SessionLocator) ServiceOption {
	return func(cfg *serviceConfig) error {
		if fn == nil {
			return errors.New("session locator cannot be nil")
		}
		cfg.locator = fn
		return nil
	}
}

// LocationHeader is the default [SessionLocator]. It returns the Location
// header of the response, resolved against the final request URL.
// A missing header fails with [ErrNoPollURL].
func LocationHeader(r *Result) (string, error) {
	if r == nil || r.Response == nil {
		return "", ErrNoPollURL
	}
	loc := strings.TrimSpace(r.Response.Header.Get("Location"))
	if loc == "" {
		return "", fmt.Errorf("%w: no Location header in response from %s", ErrNoPollURL, r.Response.URL)
	}

	ref, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("%w: invalid Location %q: %v", ErrNoPollURL, loc, err)
	}
	base, err := url.Parse(r.Response.URL)
	if err != nil {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}

// Service binds a [Client] to one API: a base URL, parameters sent with
// every call and a way to find the poll URL of a new session.
//
// Example:
//
//	svc, err := apiwrapper.NewService(client, "https://api.example.com/v1/",
//	    apiwrapper.WithServiceParam("apiKey", key),
//	)
//	result, err := svc.Search(ctx, "pricing/sessions", map[string]any{
//	    "country": "UK", "currency": "GBP",
//	}, apiwrapper.WithPollErrorMode("graceful"))
type Service struct {
	client  *Client
	baseURL *url.URL
	params  url.Values
	locator SessionLocator
}

// NewService creates a [Service] on top of client.
//
// Returns a [*ConfigError] when baseURL is not an absolute http or https URL.
func NewService(client *Client, baseURL string, opts ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if err := validateURL(baseURL); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &ConfigError{Field: "base url", Value: baseURL, Reason: err.Error()}
	}

	cfg := &serviceConfig{
		params:  make(url.Values),
		locator: LocationHeader,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return &Service{
		client:  client,
		baseURL: base,
		params:  cfg.params,
		locator: cfg.locator,
	}, nil
}

// Client returns the underlying client.
func (s *Service) Client() *Client {
	return s.client
}

// URL resolves path against the base URL. Absolute URLs are returned as-is.
func (s *Service) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	if ref.IsAbs() {
		return path
	}
	ref.Path = strings.TrimPrefix(ref.Path, "/")
	return s.baseURL.ResolveReference(ref).String()
}

// Get dispatches to path with the service parameters. Options given here
// are applied after the service parameters and may override them.
func (s *Service) Get(ctx context.Context, path string, opts ...RequestOption) (*Result, error) {
	all := make([]RequestOption, 0, len(opts)+1)
	all = append(all, withValues(s.params))
	all = append(all, opts...)
	return s.client.Dispatch(ctx, s.URL(path), all...)
}

// CreateSession POSTs params form-encoded to path and returns the poll URL
// found by the session locator.
//
// The service parameters travel in the query string. An empty response
// body is accepted. The dispatch is strict unless opts select another mode.
func (s *Service) CreateSession(ctx context.Context, path string, params map[string]any, opts ...RequestOption) (string, error) {
	all := make([]RequestOption, 0, len(opts)+4)
	all = append(all,
		WithMethod(http.MethodPost),
		withValues(s.params),
		WithForm(params),
		WithCallback(sessionCallback(s.client.format)),
	)
	all = append(all, opts...)

	result, err := s.client.Dispatch(ctx, s.URL(path), all...)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return s.locator(result)
}

// sessionCallback parses the body when there is one. Session-creating
// endpoints commonly answer 201 with only a Location header.
func sessionCallback(format ResponseFormat) Callback {
	parse := DefaultCallback(format)
	return func(resp *Response, params url.Values) (*Result, error) {
		if len(resp.Body) == 0 {
			return &Result{Response: resp, Format: format}, nil
		}
		return parse(resp, params)
	}
}

// PollSession polls pollURL with the service parameters.
func (s *Service) PollSession(ctx context.Context, pollURL string, opts ...PollOption) (*Result, error) {
	all := make([]PollOption, 0, len(opts)+1)
	all = append(all, withPollValues(s.params))
	all = append(all, opts...)
	return s.client.Poll(ctx, pollURL, all...)
}

// Search creates a session at path and polls it until complete.
func (s *Service) Search(ctx context.Context, path string, params map[string]any, opts ...PollOption) (*Result, error) {
	pollURL, err := s.CreateSession(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return s.PollSession(ctx, pollURL, opts...)
}
