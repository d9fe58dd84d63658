package apiwrapper

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Request is the descriptor of a single HTTP call handed to a [Transport].
//
// A Request is built per dispatch from the target URL and the
// [RequestOption] values and is not retained afterwards.
type Request struct {
	// Method is the upper-case HTTP verb.
	Method string

	// URL is the absolute target URL.
	URL string

	// Headers are sent with the request. Dispatch does not add any headers
	// on its own; the poller adds an Accept header.
	Headers map[string]string

	// Body is the request body, nil for none.
	Body []byte

	// Params are appended to the URL query string.
	Params url.Values

	// Verify enables TLS certificate verification.
	Verify bool

	// Timeout bounds the network call.
	Timeout time.Duration
}

// formatParam renders a scalar parameter value the way it appears in a
// query string.
func formatParam(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{""}
	case string:
		return []string{val}
	case []string:
		return append([]string(nil), val...)
	case bool:
		return []string{strconv.FormatBool(val)}
	case int:
		return []string{strconv.Itoa(val)}
	case int64:
		return []string{strconv.FormatInt(val, 10)}
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	case time.Time:
		return []string{val.Format(time.RFC3339)}
	case fmt.Stringer:
		return []string{val.String()}
	default:
		return []string{fmt.Sprint(val)}
	}
}

// toValues converts a map of scalar parameters into url.Values.
func toValues(params map[string]any) url.Values {
	if len(params) == 0 {
		return nil
	}
	values := make(url.Values, len(params))
	for k, v := range params {
		values[k] = formatParam(v)
	}
	return values
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
