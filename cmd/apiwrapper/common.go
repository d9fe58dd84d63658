package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/apiwrapper"
	"github.com/jpalmerr/apiwrapper/config"
)

// newLogger creates a JSON logger for CLI use.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// addRequestFlags registers the flags shared by the request commands.
func addRequestFlags(cmd *cobra.Command, configRequired bool) {
	cmd.Flags().StringP("config", "c", "", "path to profile file")
	cmd.Flags().StringArrayP("param", "p", nil, "request parameter as key=value (repeatable)")
	cmd.Flags().String("errors", "", "error mode override: strict, graceful or ignore")
	if configRequired {
		_ = cmd.MarkFlagRequired("config")
	}
}

// loadProfile reads the --config profile. Without one an empty profile
// with defaults is returned.
func loadProfile(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Parse(nil)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setup loads the profile and builds a client logging to stderr.
func setup(cmd *cobra.Command) (*config.Config, *apiwrapper.Client, error) {
	cfg, err := loadProfile(cmd)
	if err != nil {
		return nil, nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	client, err := config.BuildClient(cfg, apiwrapper.WithLogger(newLogger(verbose)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	return cfg, client, nil
}

// parseParams converts key=value flag values into a parameter map.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", pair)
		}
		params[key] = value
	}
	return params, nil
}

// flagParams reads the --param flags.
func flagParams(cmd *cobra.Command) (map[string]any, error) {
	pairs, _ := cmd.Flags().GetStringArray("param")
	return parseParams(pairs)
}

// printResult writes the response body to w, indenting JSON.
func printResult(w io.Writer, r *apiwrapper.Result) error {
	if r == nil || r.Response == nil || len(r.Response.Body) == 0 {
		return nil
	}

	body := r.Response.Body
	if r.Format == apiwrapper.FormatJSON && r.Parsed() {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			body = buf.Bytes()
		}
	}

	if _, err := w.Write(body); err != nil {
		return err
	}
	if !bytes.HasSuffix(body, []byte("\n")) {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
