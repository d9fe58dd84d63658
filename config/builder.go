package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/jpalmerr/apiwrapper"
)

// BuildClient converts a parsed profile into an SDK Client.
//
// extra options are applied after the profile's, so callers can add a
// logger or replace the transport.
func BuildClient(cfg *Config, extra ...apiwrapper.Option) (*apiwrapper.Client, error) {
	format, err := apiwrapper.ParseResponseFormat(cfg.ResponseFormat)
	if err != nil {
		return nil, err
	}

	opts := []apiwrapper.Option{
		apiwrapper.WithResponseFormat(format),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, apiwrapper.WithTimeout(cfg.Timeout.Duration()))
	}
	if cfg.VerifyTLS != nil {
		opts = append(opts, apiwrapper.WithTLSVerification(*cfg.VerifyTLS))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		opts = append(opts, apiwrapper.WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}
	opts = append(opts, extra...)

	return apiwrapper.New(opts...)
}

// BuildService binds client to the profile's base URL and fixed params.
func BuildService(cfg *Config, client *apiwrapper.Client) (*apiwrapper.Service, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base_url is required")
	}
	return apiwrapper.NewService(client, cfg.BaseURL,
		apiwrapper.WithServiceParams(stringParams(cfg.Params)),
	)
}

// RequestOptions returns the per-request options of the profile: its
// headers and error mode.
func RequestOptions(cfg *Config) []apiwrapper.RequestOption {
	var opts []apiwrapper.RequestOption
	if len(cfg.Headers) > 0 {
		opts = append(opts, apiwrapper.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}
	opts = append(opts, apiwrapper.WithErrorMode(cfg.ErrorMode))
	return opts
}

// PollOptions returns the poll options of the profile, including its
// fixed params and headers.
func PollOptions(cfg *Config) ([]apiwrapper.PollOption, error) {
	p := cfg.Poll

	opts := []apiwrapper.PollOption{
		apiwrapper.WithPollErrorMode(p.ErrorMode),
	}
	if len(cfg.Params) > 0 {
		opts = append(opts, apiwrapper.WithPollParams(stringParams(cfg.Params)))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, apiwrapper.WithPollHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}
	if p.InitialDelay != nil {
		opts = append(opts, apiwrapper.WithInitialDelay(p.InitialDelay.Duration()))
	}
	if p.Delay != nil {
		opts = append(opts, apiwrapper.WithDelay(p.Delay.Duration()))
	}
	if p.MaxTries > 0 {
		opts = append(opts, apiwrapper.WithMaxTries(p.MaxTries))
	}

	pred, err := buildCompletion(p.Completion)
	if err != nil {
		return nil, err
	}
	if pred != nil {
		opts = append(opts, apiwrapper.WithCompletion(pred))
	}
	return opts, nil
}

// buildCompletion converts CompletionConfig to a Predicate.
// Returns nil for default/empty completions (SDK uses DefaultCompletion).
func buildCompletion(cc CompletionConfig) (apiwrapper.Predicate, error) {
	switch cc.Type {
	case "", "default":
		return nil, nil
	case "status":
		return apiwrapper.StatusIn(completionValues(cc.Values)...), nil
	case "json":
		return apiwrapper.JSONFieldIn(cc.Path, completionValues(cc.Values)...), nil
	case "xml":
		return apiwrapper.XMLPathIn(cc.Path, completionValues(cc.Values)...), nil
	case "http":
		codes, err := parseCodes(cc.Values)
		if err != nil {
			return nil, err
		}
		return apiwrapper.HTTPStatusIn(codes...), nil
	default:
		return nil, fmt.Errorf("unknown completion type %q", cc.Type)
	}
}

// completionValues turns YAML strings into predicate values. A value that
// reads as a boolean or a number also matches the JSON boolean or number.
func completionValues(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
		switch v {
		case "true":
			out = append(out, true)
		case "false":
			out = append(out, false)
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			out = append(out, f)
		}
	}
	return out
}

func parseCodes(values []string) ([]int, error) {
	codes := make([]int, 0, len(values))
	for _, v := range values {
		code, err := strconv.Atoi(v)
		if err != nil || code < 100 || code > 599 {
			return nil, fmt.Errorf("invalid HTTP status code %q", v)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func stringParams(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
