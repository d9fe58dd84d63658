package apiwrapper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Dispatch performs exactly one HTTP call and applies the error policy.
//
// The response passes through the callback (the format's default parser
// unless [WithCallback] is given). What happens on failure depends on the
// error mode selected with [WithErrorMode]:
//
//   - [Strict] (default): every classified error is returned.
//   - [Graceful]: an empty body yields a result with a nil payload and HTTP
//     429 yields a best-effort parse; every other error is returned.
//   - [Ignore]: errors are logged and a best-effort result is returned,
//     its payload possibly nil.
//
// 400 responses are parsed for validation errors, which are listed in the
// returned [*HTTPError]. Configuration errors (invalid mode, method, URL or
// options), [*TransportError] and [*ParameterError] are returned in every
// mode. Dispatch never retries.
func (c *Client) Dispatch(ctx context.Context, rawURL string, opts ...RequestOption) (*Result, error) {
	cfg := newRequestConfig()
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

	req := c.buildRequest(rawURL, cfg)

	callback := cfg.callback
	if callback == nil {
		callback = DefaultCallback(c.format)
	}

	requestID := uuid.NewString()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := c.transport.Do(ctx, req)
	if err == nil && resp == nil {
		err = errors.New("transport returned no response")
	}
	if err != nil {
		c.logger.Error("request failed",
			"request_id", requestID,
			"method", req.Method,
			"url", redactURL(req.URL),
			"error", err.Error(),
		)
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}

	c.logger.Debug("request dispatched",
		"request_id", requestID,
		"method", req.Method,
		"url", redactURL(resp.URL),
		"params", redactValues(req.Params),
		"headers", redactHeaders(req.Headers),
		"status_code", resp.StatusCode,
		"latency_ms", resp.Latency.Milliseconds(),
	)

	if statusErr := resp.RaiseForStatus(); statusErr != nil {
		return c.handleError(resp, statusErr, cfg.errorMode, requestID)
	}

	result, err := invokeCallbackSafe(callback, resp, req.Params, c.logger)
	if err != nil {
		var paramErr *ParameterError
		if errors.As(err, &paramErr) {
			return nil, err
		}
		return c.handleError(resp, err, cfg.errorMode, requestID)
	}
	// callbacks may leave Format unset; Status and completion need it
	if result != nil && result.Format == "" {
		result.Format = c.format
	}
	return result, nil
}

func (c *Client) buildRequest(rawURL string, cfg *requestConfig) *Request {
	verify := c.verify
	if cfg.verify != nil {
		verify = *cfg.verify
	}
	timeout := c.timeout
	if cfg.timeout > 0 {
		timeout = cfg.timeout
	}

	var headers map[string]string
	if len(cfg.headers) > 0 {
		headers = copyMap(cfg.headers)
	}
	var params url.Values
	if len(cfg.params) > 0 {
		params = cfg.params
	}

	return &Request{
		Method:  cfg.method,
		URL:     rawURL,
		Headers: headers,
		Body:    cfg.body,
		Params:  params,
		Verify:  verify,
		Timeout: timeout,
	}
}

// handleError applies the error mode to a classified failure.
func (c *Client) handleError(resp *Response, err error, mode ErrorMode, requestID string) (*Result, error) {
	var recovered *Result

	if he, ok := AsHTTPError(err); ok && he.StatusCode == http.StatusBadRequest {
		recovered = c.tryParse(resp, requestID)
		he.Messages = c.codec.validationMessages(recovered.Payload)
	}

	switch mode {
	case Strict:
		return nil, err

	case Graceful:
		if errors.Is(err, ErrEmptyResponse) {
			// the API occasionally answers with no content; the caller retries
			c.logger.Warn("empty response tolerated",
				"request_id", requestID,
				"url", redactURL(resp.URL),
				"error", err.Error(),
			)
			return &Result{Response: resp, Format: c.format}, nil
		}
		if IsHTTPStatus(err, http.StatusTooManyRequests) {
			c.logger.Warn("rate limited response tolerated",
				"request_id", requestID,
				"url", redactURL(resp.URL),
				"error", err.Error(),
			)
			return c.tryParse(resp, requestID), nil
		}
		return nil, err

	default:
		c.logger.Error("response error ignored",
			"request_id", requestID,
			"url", redactURL(resp.URL),
			"status_code", resp.StatusCode,
			"error", err.Error(),
		)
		if recovered == nil {
			recovered = c.tryParse(resp, requestID)
		}
		return recovered, nil
	}
}

// tryParse parses the body in the client's format and never fails.
// The payload is nil when the body is empty or malformed.
func (c *Client) tryParse(resp *Response, requestID string) *Result {
	result := &Result{Response: resp, Format: c.format}
	if len(resp.Body) == 0 {
		return result
	}

	payload, err := c.codec.parse(resp.Body)
	if err != nil {
		c.logger.Warn("best-effort parse failed",
			"request_id", requestID,
			"url", redactURL(resp.URL),
			"error", newParseError(c.format, resp.Body, err).Error(),
		)
		return result
	}
	result.Payload = payload
	return result
}

// validateURL requires an absolute http or https URL.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ConfigError{Field: "url", Value: rawURL, Reason: err.Error()}
	}
	if u.Scheme == "" || u.Host == "" {
		return &ConfigError{Field: "url", Value: rawURL, Reason: "url must be absolute (http:// or https://)"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "url", Value: rawURL, Reason: "url scheme must be http or https"}
	}
	return nil
}
