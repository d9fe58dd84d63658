// Package config provides YAML profile parsing for the apiwrapper
// command-line tool.
//
// A profile describes one API: where it lives, how it answers, and how
// its long-running sessions are polled. It is an alternative to wiring the
// SDK options by hand.
//
// Example profile:
//
//	base_url: https://partners.api.example.com/apiservices
//	response_format: json
//	timeout: 30s
//	error_mode: strict
//
//	params:
//	  apiKey: ${API_KEY}
//
//	rate_limit:
//	  requests_per_second: 2
//	  burst: 1
//
//	poll:
//	  initial_delay: 2s
//	  delay: 1s
//	  max_tries: 20
//	  error_mode: graceful
//	  completion: status:UpdatesComplete
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/apiwrapper"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultInitialDelay = 2 * time.Second
	defaultDelay        = 1 * time.Second
	defaultMaxTries     = 20
)

// Config is the root structure of a profile.
//
// It maps directly to the YAML file. Use [Load] or [Parse] to create one.
type Config struct {
	// BaseURL is the root the relative paths of get and session resolve
	// against. Supports environment variable substitution.
	BaseURL string `yaml:"base_url"`

	// ResponseFormat is "json" or "xml". Defaults to json.
	ResponseFormat string `yaml:"response_format"`

	// Timeout is the per-request timeout. Defaults to 30s.
	Timeout Duration `yaml:"timeout"`

	// VerifyTLS enables certificate verification. Defaults to true.
	VerifyTLS *bool `yaml:"verify_tls"`

	// ErrorMode is the mode of single requests. Defaults to strict.
	ErrorMode string `yaml:"error_mode"`

	// RateLimit paces outgoing requests. Disabled when omitted.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Params are sent with every request, typically an API key.
	// Values support environment variable substitution.
	Params map[string]string `yaml:"params"`

	// Headers are sent with every request, poll attempts included.
	// A poll keeps its own Accept header.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Poll configures polling.
	Poll PollConfig `yaml:"poll"`
}

// RateLimitConfig paces requests client-side.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst defaults to 1 when a rate is set.
	Burst int `yaml:"burst"`
}

// PollConfig holds the poll loop settings.
type PollConfig struct {
	// InitialDelay is waited before the first attempt. Defaults to 2s.
	InitialDelay *Duration `yaml:"initial_delay"`

	// Delay is waited after every attempt that did not complete.
	// Defaults to 1s.
	Delay *Duration `yaml:"delay"`

	// MaxTries is the attempt budget. Defaults to 20.
	MaxTries int `yaml:"max_tries"`

	// ErrorMode is the mode of every attempt. Defaults to strict.
	ErrorMode string `yaml:"error_mode"`

	// Completion decides when polling is done.
	Completion CompletionConfig `yaml:"completion"`
}

// CompletionConfig specifies the poll completion predicate.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	completion: default
//	completion: status:Done,Finished
//	completion: json:data.job.state=done
//	completion: xml:./Job/State=Finished
//	completion: http:200,201
//
// Structured object:
//
//	completion:
//	  type: json
//	  path: data.job.state
//	  values: [done, finished]
type CompletionConfig struct {
	// Type is "default", "status", "json", "xml" or "http".
	Type string

	// Path is the field path (for type: json or xml).
	Path string

	// Values are the values that mean complete.
	Values []string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for CompletionConfig.
func (c *CompletionConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return c.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type   string   `yaml:"type"`
			Path   string   `yaml:"path"`
			Values []string `yaml:"values"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		c.Type = raw.Type
		c.Path = raw.Path
		c.Values = raw.Values
		return nil
	}

	return fmt.Errorf("completion must be a string or object, got %v", node.Kind)
}

// parseShorthand parses completion shorthand syntax.
//
// Supported formats:
//   - "default" → status is UpdatesComplete, COMPLETE or true
//   - "status:a,b" → status field is one of the values
//   - "json:path=a,b" → JSON field at path is one of the values
//   - "xml:./path=a,b" → XML element text at path is one of the values
//   - "http:200,201" → HTTP status code is one of the values
func (c *CompletionConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	kind, rest, found := strings.Cut(s, ":")
	if !found {
		if s != "default" {
			return fmt.Errorf("unknown completion %q (expected 'default', 'status:values', 'json:path=values', 'xml:path=values', or 'http:codes')", s)
		}
		c.Type = s
		return nil
	}

	c.Type = kind
	switch kind {
	case "status", "http":
		c.Values = splitValues(rest)
	case "json", "xml":
		path, values, ok := strings.Cut(rest, "=")
		if !ok {
			return fmt.Errorf("completion %q: expected %s:path=values", s, kind)
		}
		c.Path = path
		c.Values = splitValues(values)
	default:
		return fmt.Errorf("unknown completion type %q", kind)
	}
	return nil
}

func splitValues(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML profile.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML profile data.
//
// Environment variables are expanded in BaseURL, Params and Headers.
// Defaults are applied for the response format, timeout, TLS verification,
// error modes and poll settings.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ResponseFormat == "" {
		c.ResponseFormat = apiwrapper.FormatJSON.String()
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(defaultTimeout)
	}
	if c.VerifyTLS == nil {
		verify := true
		c.VerifyTLS = &verify
	}
	if c.ErrorMode == "" {
		c.ErrorMode = apiwrapper.Strict.String()
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 1
	}

	p := &c.Poll
	if p.InitialDelay == nil {
		d := Duration(defaultInitialDelay)
		p.InitialDelay = &d
	}
	if p.Delay == nil {
		d := Duration(defaultDelay)
		p.Delay = &d
	}
	if p.MaxTries == 0 {
		p.MaxTries = defaultMaxTries
	}
	if p.ErrorMode == "" {
		p.ErrorMode = apiwrapper.Strict.String()
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.BaseURL != "" {
		expanded, err := expandEnvVars(c.BaseURL)
		if err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		c.BaseURL = expanded

		parsedURL, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if parsedURL.Scheme == "" {
			return fmt.Errorf("base_url must have a scheme (http:// or https://)")
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("base_url scheme must be http or https, got %q", parsedURL.Scheme)
		}
	}

	format, err := apiwrapper.ParseResponseFormat(c.ResponseFormat)
	if err != nil {
		return fmt.Errorf("response_format: %w", err)
	}
	c.ResponseFormat = format.String()

	if c.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout.Duration())
	}

	if _, err := apiwrapper.ParseErrorMode(c.ErrorMode); err != nil {
		return fmt.Errorf("error_mode: %w", err)
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second cannot be negative")
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.burst cannot be negative")
	}

	for k, v := range c.Params {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("params[%s]: %w", k, err)
		}
		c.Params[k] = expanded
	}

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	return c.Poll.validate()
}

func (p *PollConfig) validate() error {
	if p.InitialDelay.Duration() < 0 {
		return fmt.Errorf("poll.initial_delay cannot be negative, got %s", p.InitialDelay.Duration())
	}
	if p.Delay.Duration() < 0 {
		return fmt.Errorf("poll.delay cannot be negative, got %s", p.Delay.Duration())
	}
	if p.MaxTries < 0 {
		return fmt.Errorf("poll.max_tries must be positive, got %d", p.MaxTries)
	}
	if _, err := apiwrapper.ParseErrorMode(p.ErrorMode); err != nil {
		return fmt.Errorf("poll.error_mode: %w", err)
	}
	return validateCompletion(&p.Completion)
}

// validateCompletion validates a completion configuration.
func validateCompletion(c *CompletionConfig) error {
	switch c.Type {
	case "", "default":
		return nil
	case "status":
		if len(c.Values) == 0 {
			return fmt.Errorf("poll.completion: type 'status' requires values")
		}
	case "json", "xml":
		if c.Path == "" {
			return fmt.Errorf("poll.completion: type '%s' requires a path", c.Type)
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("poll.completion: type '%s' requires values", c.Type)
		}
	case "http":
		if len(c.Values) == 0 {
			return fmt.Errorf("poll.completion: type 'http' requires status codes")
		}
		if _, err := parseCodes(c.Values); err != nil {
			return fmt.Errorf("poll.completion: %w", err)
		}
	default:
		return fmt.Errorf("poll.completion: unknown type %q", c.Type)
	}
	return nil
}
