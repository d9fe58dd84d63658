package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/apiwrapper/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a profile without sending requests",
	Long: `Validate a profile file without calling the API.

This checks:
  - YAML syntax is valid
  - base_url has an http or https scheme
  - response_format and error modes are known
  - Environment variables are set (or have defaults)
  - Poll settings and the completion predicate are valid`,
	Example: `  apiwrapper validate -c api.yaml`,
	RunE:    runValidate,
}

func init() {
	validateCmd.Flags().StringP("config", "c", "", "path to profile file (required)")
	_ = validateCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "(none, poll only)"
	}

	completion := cfg.Poll.Completion.Type
	if completion == "" {
		completion = "default"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Config is valid!")
	fmt.Fprintf(out, "  Base URL:      %s\n", baseURL)
	fmt.Fprintf(out, "  Format:        %s\n", cfg.ResponseFormat)
	fmt.Fprintf(out, "  Timeout:       %s\n", cfg.Timeout.Duration())
	fmt.Fprintf(out, "  Error mode:    %s\n", cfg.ErrorMode)
	fmt.Fprintf(out, "  Params:        %d\n", len(cfg.Params))
	fmt.Fprintf(out, "  Poll:          %d tries, %s initial delay, %s delay, %s mode\n",
		cfg.Poll.MaxTries,
		cfg.Poll.InitialDelay.Duration(),
		cfg.Poll.Delay.Duration(),
		cfg.Poll.ErrorMode,
	)
	fmt.Fprintf(out, "  Completion:    %s\n", completion)

	return nil
}
