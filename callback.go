package apiwrapper

import (
	"fmt"
	"net/url"
	"runtime/debug"
	"sort"

	"github.com/google/uuid"
)

// Callback turns a raw [Response] into a [Result].
//
// The dispatcher invokes the callback only for non-error statuses and passes
// the query parameters of the call. Return an error wrapping
// [ErrEmptyResponse] to signal "no content yet"; [Graceful] mode swallows it.
type Callback func(resp *Response, params url.Values) (*Result, error)

// DefaultCallback returns the built-in parsing callback for format.
//
// It fails with [ErrEmptyResponse] when the body is empty and with a
// [*ParseError] when the body is not valid in the given format.
func DefaultCallback(format ResponseFormat) Callback {
	c := format.codec()
	return func(resp *Response, _ url.Values) (*Result, error) {
		if resp == nil || len(resp.Body) == 0 {
			return nil, ErrEmptyResponse
		}
		payload, err := c.parse(resp.Body)
		if err != nil {
			return nil, newParseError(format, resp.Body, err)
		}
		return &Result{Response: resp, Payload: payload, Format: format}, nil
	}
}

// Contract declares which query parameters a callback accepts.
//
// Required parameters must be present on every call. When the contract
// names any parameter, parameters outside Required and Optional are
// rejected.
type Contract struct {
	Required []string
	Optional []string
}

// Bind validates the contract and returns a callback that checks parameters
// against it before invoking cb. Violations surface as [*ParameterError]
// in every error mode.
func (c Contract) Bind(cb Callback) (Callback, error) {
	if cb == nil {
		return nil, &ConfigError{Field: "callback", Value: "<nil>", Reason: "callback cannot be nil"}
	}

	seen := make(map[string]bool, len(c.Required)+len(c.Optional))
	for _, name := range append(append([]string(nil), c.Required...), c.Optional...) {
		if name == "" {
			return nil, &ConfigError{Field: "contract parameter", Value: name, Reason: "name cannot be empty"}
		}
		if seen[name] {
			return nil, &ConfigError{Field: "contract parameter", Value: name, Reason: "declared twice"}
		}
		seen[name] = true
	}

	return func(resp *Response, params url.Values) (*Result, error) {
		if err := c.Check(params); err != nil {
			return nil, err
		}
		return cb(resp, params)
	}, nil
}

// Check returns a [*ParameterError] for the first violation in params.
func (c Contract) Check(params url.Values) error {
	for _, name := range c.Required {
		if _, ok := params[name]; !ok {
			return &ParameterError{Name: name, Missing: true}
		}
	}

	if len(c.Required)+len(c.Optional) == 0 {
		return nil
	}

	allowed := make(map[string]bool, len(c.Required)+len(c.Optional))
	for _, name := range c.Required {
		allowed[name] = true
	}
	for _, name := range c.Optional {
		allowed[name] = true
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !allowed[k] {
			return &ParameterError{Name: k}
		}
	}
	return nil
}

// invokeCallbackSafe calls cb with panic recovery. A panic is logged with a
// correlation id and stack trace and returned as [*CallbackPanicError].
func invokeCallbackSafe(cb Callback, resp *Response, params url.Values, logger Logger) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			logger.Error("callback panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
				"url", redactURL(resp.URL),
			)
			result = nil
			err = &CallbackPanicError{CorrelationID: correlationID, Value: r}
		}
	}()
	return cb(resp, params)
}
