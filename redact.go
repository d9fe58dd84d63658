package apiwrapper

import (
	"net/url"
	"strings"
)

const redacted = "REDACTED"

// sensitiveNameParts mark header and query parameter names whose values
// are kept out of the logs. Matching is case-insensitive on substrings, so
// "Authorization", "X-Api-Key" and "apiKey" are all covered.
var sensitiveNameParts = []string{"auth", "key", "token", "secret", "password", "cookie", "signature", "session"}

func isSensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, part := range sensitiveNameParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// redactHeaders returns a copy of headers safe for logging.
func redactHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if isSensitiveName(k) {
			v = redacted
		}
		out[k] = v
	}
	return out
}

// redactValues returns a copy of params safe for logging.
func redactValues(params url.Values) url.Values {
	if len(params) == 0 {
		return nil
	}
	out := make(url.Values, len(params))
	for k, vv := range params {
		if isSensitiveName(k) {
			out[k] = []string{redacted}
			continue
		}
		out[k] = append([]string(nil), vv...)
	}
	return out
}

// redactURL masks sensitive query parameters and userinfo of rawURL.
// Unparsable input is returned unchanged.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.User != nil {
		u.User = url.User(redacted)
	}
	if u.RawQuery != "" {
		u.RawQuery = redactValues(u.Query()).Encode()
	}
	return u.String()
}
