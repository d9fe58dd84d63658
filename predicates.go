package apiwrapper

import (
	"fmt"
	"strings"

	"github.com/jpalmerr/apiwrapper/internal/xmltree"
)

// Predicate decides whether a poll attempt's [Result] represents a finished
// operation.
//
// A Predicate returning an error aborts the poll; the error is returned by
// [Client.Poll] unchanged. The result may be nil when a custom callback
// returned none, and its payload may be nil when the error mode tolerated a
// failure.
//
// Several built-in predicates are provided: [DefaultCompletion],
// [StatusIn], [JSONFieldIn], [XMLPathIn], [HTTPStatusIn], and [AnyOf] for
// composition.
type Predicate func(r *Result) (bool, error)

// completeMarkers are the status values the default predicate accepts.
// Matching is exact and case-sensitive.
var completeMarkers = []any{"UpdatesComplete", true, "COMPLETE"}

// DefaultCompletion is the [Predicate] used when a poll is given none.
//
// A result without a payload is not complete. A payload without a status
// field (json: "Status" or "status" key; xml: text of ./Status) fails with
// [ErrMissingStatus]. Otherwise the poll is complete when the status is
// exactly "UpdatesComplete", the boolean true, or "COMPLETE".
var DefaultCompletion = StatusIn(completeMarkers...)

// StatusIn returns a [Predicate] that is satisfied when the format's status
// field equals one of values.
//
// Strings compare exactly and case-sensitively; booleans and numbers compare
// by value. Results without a payload are not complete; a payload without a
// status field fails with [ErrMissingStatus].
//
// Example:
//
//	// an API that reports {"state": ..., "Status": "Done"}
//	pred := apiwrapper.StatusIn("Done", "Finished")
func StatusIn(values ...any) Predicate {
	return func(r *Result) (bool, error) {
		if !r.Parsed() {
			return false, nil
		}
		status, ok := r.Status()
		if !ok {
			if r.Response != nil {
				return false, fmt.Errorf("%w: %s", ErrMissingStatus, r.Response.URL)
			}
			return false, ErrMissingStatus
		}
		return matchStatus(status, values), nil
	}
}

// JSONFieldIn returns a [Predicate] that reads a JSON field using dot
// notation and is satisfied when it equals one of values.
//
// For example, "data.job.state" navigates to
// {"data": {"job": {"state": "done"}}}. A missing field, a nil payload or a
// non-JSON payload means "not complete yet".
//
// Example:
//
//	pred := apiwrapper.JSONFieldIn("data.job.state", "done")
func JSONFieldIn(path string, values ...any) Predicate {
	parts := strings.Split(path, ".")

	return func(r *Result) (bool, error) {
		if !r.Parsed() {
			return false, nil
		}
		value, ok := extractJSONPath(r.Payload, parts)
		if !ok {
			return false, nil
		}
		return matchStatus(value, values), nil
	}
}

// extractJSONPath walks a JSON structure using dot notation parts.
func extractJSONPath(data any, parts []string) (any, bool) {
	current := data

	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}

	return current, current != nil
}

// XMLPathIn returns a [Predicate] that reads the text of the element at a
// relative path (e.g. "./Job/State") and is satisfied when it equals one of
// values. A missing element, a nil payload or a non-XML payload means
// "not complete yet".
func XMLPathIn(path string, values ...any) Predicate {
	return func(r *Result) (bool, error) {
		if !r.Parsed() {
			return false, nil
		}
		root, ok := r.Payload.(*xmltree.Node)
		if !ok {
			return false, nil
		}
		text, ok := root.FindText(path)
		if !ok {
			return false, nil
		}
		return matchStatus(text, values), nil
	}
}

// HTTPStatusIn returns a [Predicate] that is satisfied when the response
// status code is one of codes, for APIs that answer 202 while work is
// pending and 200 once it is done.
func HTTPStatusIn(codes ...int) Predicate {
	return func(r *Result) (bool, error) {
		if r == nil || r.Response == nil {
			return false, nil
		}
		for _, code := range codes {
			if r.Response.StatusCode == code {
				return true, nil
			}
		}
		return false, nil
	}
}

// AnyOf returns a [Predicate] that is satisfied when any of preds is.
//
// Predicates are tried in order; the first error stops evaluation and is
// returned.
//
// Example:
//
//	pred := apiwrapper.AnyOf(
//	    apiwrapper.JSONFieldIn("job.state", "done"),
//	    apiwrapper.HTTPStatusIn(http.StatusOK),
//	)
func AnyOf(preds ...Predicate) Predicate {
	return func(r *Result) (bool, error) {
		for _, p := range preds {
			done, err := p(r)
			if err != nil {
				return false, err
			}
			if done {
				return true, nil
			}
		}
		return false, nil
	}
}

// matchStatus reports whether status equals one of values. Only strings,
// booleans and numbers can match.
func matchStatus(status any, values []any) bool {
	for _, v := range values {
		switch s := status.(type) {
		case string:
			if vs, ok := v.(string); ok && vs == s {
				return true
			}
		case bool:
			if vb, ok := v.(bool); ok && vb == s {
				return true
			}
		case float64:
			if vn, ok := toFloat(v); ok && vn == s {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
