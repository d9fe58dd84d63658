package apiwrapper

import "strings"

// ErrorMode selects how aggressively a dispatch surfaces failures.
type ErrorMode string

const (
	// Strict surfaces every classified error.
	Strict ErrorMode = "strict"

	// Graceful swallows empty responses and HTTP 429 so a poller can retry,
	// and surfaces everything else.
	Graceful ErrorMode = "graceful"

	// Ignore logs response, status and parse errors and returns a
	// best-effort result instead.
	Ignore ErrorMode = "ignore"
)

// ParseErrorMode resolves a mode name case-insensitively.
//
// An empty string resolves to [Graceful]. Any other unknown value returns a
// [*ConfigError].
func ParseErrorMode(s string) (ErrorMode, error) {
	if s == "" {
		return Graceful, nil
	}
	switch m := ErrorMode(strings.ToLower(s)); m {
	case Strict, Graceful, Ignore:
		return m, nil
	default:
		return "", &ConfigError{
			Field:  "error mode",
			Value:  s,
			Reason: "possible values are: strict, graceful, ignore",
		}
	}
}

// String returns the mode name.
func (m ErrorMode) String() string {
	return string(m)
}
