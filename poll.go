package apiwrapper

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const (
	defaultInitialDelay = 2 * time.Second
	defaultPollDelay    = 1 * time.Second
	defaultMaxTries     = 20
)

// pollConfig holds mutable state while a poll is being prepared.
type pollConfig struct {
	initialDelay time.Duration
	delay        time.Duration
	maxTries     int
	errorMode    ErrorMode
	isComplete   Predicate
	params       url.Values
	headers      map[string]string
}

// PollOption configures a single [Client.Poll] call.
type PollOption func(*pollConfig) error

// WithInitialDelay sets how long to wait before the first attempt.
// Defaults to 2 seconds.
//
// Returns an error if the duration is negative.
func WithInitialDelay(d time.Duration) PollOption {
	return func(cfg *pollConfig) error {
		if d < 0 {
			return errors.New("initial delay cannot be negative")
		}
		cfg.initialDelay = d
		return nil
	}
}

// WithDelay sets how long to wait after every attempt that did not complete.
// Defaults to 1 second.
//
// Returns an error if the duration is negative.
func WithDelay(d time.Duration) PollOption {
	return func(cfg *pollConfig) error {
		if d < 0 {
			return errors.New("delay cannot be negative")
		}
		cfg.delay = d
		return nil
	}
}

// WithMaxTries sets the attempt budget. Defaults to 20.
//
// Returns an error if n is zero or negative.
func WithMaxTries(n int) PollOption {
	return func(cfg *pollConfig) error {
		if n <= 0 {
			return errors.New("max tries must be positive")
		}
		cfg.maxTries = n
		return nil
	}
}

// WithPollErrorMode selects the error mode for every attempt, by name as
// in [WithErrorMode]. Without this option a poll is strict.
//
// Returns a [*ConfigError] for an unknown name.
func WithPollErrorMode(mode string) PollOption {
	return func(cfg *pollConfig) error {
		m, err := ParseErrorMode(mode)
		if err != nil {
			return err
		}
		cfg.errorMode = m
		return nil
	}
}

// WithCompletion replaces [DefaultCompletion].
//
// Returns an error if p is nil.
func WithCompletion(p Predicate) PollOption {
	return func(cfg *pollConfig) error {
		if p == nil {
			return errors.New("completion predicate cannot be nil")
		}
		cfg.isComplete = p
		return nil
	}
}

// WithPollParam adds a query parameter sent with every attempt.
func WithPollParam(key string, value any) PollOption {
	return func(cfg *pollConfig) error {
		if key == "" {
			return errors.New("parameter name cannot be empty")
		}
		cfg.params[key] = formatParam(value)
		return nil
	}
}

// WithPollParams adds query parameters sent with every attempt.
func WithPollParams(params map[string]any) PollOption {
	return func(cfg *pollConfig) error {
		for k, v := range params {
			if k == "" {
				return errors.New("parameter name cannot be empty")
			}
			cfg.params[k] = formatParam(v)
		}
		return nil
	}
}

// WithPollHeader adds a header sent with every attempt. The Accept header
// always matches the client's format and cannot be replaced.
func WithPollHeader(key, value string) PollOption {
	return func(cfg *pollConfig) error {
		if key == "" {
			return errors.New("header name cannot be empty")
		}
		cfg.headers[key] = value
		return nil
	}
}

// WithPollHeaders adds headers sent with every attempt, as key-value pairs
// like [WithHeaders].
func WithPollHeaders(keyValues ...string) PollOption {
	return func(cfg *pollConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithPollHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			if keyValues[i] == "" {
				return errors.New("header name cannot be empty")
			}
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

func withPollValues(values url.Values) PollOption {
	return func(cfg *pollConfig) error {
		for k, vv := range values {
			cfg.params[k] = append([]string(nil), vv...)
		}
		return nil
	}
}

// Poll repeatedly dispatches GET requests to rawURL until the completion
// predicate is satisfied or the attempt budget runs out.
//
// Poll sleeps for the initial delay, then dispatches with an Accept header
// for the client's format plus any [WithPollHeader] headers. A result satisfying the predicate is returned
// immediately; otherwise Poll sleeps for the delay and tries again.
//
// When every attempt is used up, a strict poll fails with
// [*ExceededRetriesError]; graceful and ignore polls return the last result
// as-is, so callers must check it themselves.
//
// Any error from a dispatch or from the predicate aborts the poll and is
// returned unchanged. Cancelling ctx interrupts the sleeps.
//
// Example:
//
//	result, err := client.Poll(ctx, pollURL,
//	    apiwrapper.WithInitialDelay(time.Second),
//	    apiwrapper.WithMaxTries(10),
//	    apiwrapper.WithPollErrorMode("graceful"),
//	)
func (c *Client) Poll(ctx context.Context, rawURL string, opts ...PollOption) (*Result, error) {
	cfg := &pollConfig{
		initialDelay: defaultInitialDelay,
		delay:        defaultPollDelay,
		maxTries:     defaultMaxTries,
		errorMode:    Strict,
		isComplete:   DefaultCompletion,
		params:       make(url.Values),
		headers:      make(map[string]string),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	pollID := uuid.NewString()
	c.logger.Debug("poll started",
		"poll_id", pollID,
		"url", redactURL(rawURL),
		"initial_delay", cfg.initialDelay.String(),
		"delay", cfg.delay.String(),
		"max_tries", cfg.maxTries,
		"error_mode", cfg.errorMode.String(),
	)

	if err := sleep(ctx, cfg.initialDelay); err != nil {
		return nil, err
	}

	reqOpts := []RequestOption{
		withHeaderMap(cfg.headers),
		withHeaderMap(c.Headers()),
		withErrorMode(cfg.errorMode),
		withValues(cfg.params),
	}

	var last *Result
	for attempt := 1; attempt <= cfg.maxTries; attempt++ {
		result, err := c.Dispatch(ctx, rawURL, reqOpts...)
		if err != nil {
			return nil, err
		}
		last = result

		done, err := cfg.isComplete(result)
		if err != nil {
			return nil, err
		}
		if done {
			c.logger.Debug("poll complete", "poll_id", pollID, "url", redactURL(rawURL), "attempt", attempt)
			return result, nil
		}

		c.logger.Debug("poll not complete", "poll_id", pollID, "url", redactURL(rawURL), "attempt", attempt)
		if err := sleep(ctx, cfg.delay); err != nil {
			return nil, err
		}
	}

	if cfg.errorMode == Strict {
		return nil, &ExceededRetriesError{URL: rawURL, Tries: cfg.maxTries}
	}

	c.logger.Warn("poll exhausted, returning last result",
		"poll_id", pollID,
		"url", redactURL(rawURL),
		"tries", cfg.maxTries,
	)
	return last, nil
}

func withHeaderMap(headers map[string]string) RequestOption {
	return func(cfg *requestConfig) error {
		for k, v := range headers {
			cfg.headers[k] = v
		}
		return nil
	}
}

func withErrorMode(m ErrorMode) RequestOption {
	return func(cfg *requestConfig) error {
		cfg.errorMode = m
		return nil
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
