package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/apiwrapper"
	"github.com/jpalmerr/apiwrapper/config"
)

var sessionCmd = &cobra.Command{
	Use:   "session <path>",
	Short: "Create a session and poll it until complete",
	Long: `Create a session by POSTing the --param values form-encoded to a path
below the profile's base_url, then poll the URL from the Location header
until the session completes.

The profile's params (an API key, typically) are sent in the query string
of both steps. --errors overrides the poll error mode.`,
	Example: `  apiwrapper session pricing/v1.0 -c api.yaml \
      -p country=UK -p currency=GBP -p locale=en-GB \
      -p originplace=EDI -p destinationplace=LHR -p outbounddate=2026-11-01

  apiwrapper session pricing/v1.0 -c api.yaml -p country=UK --create-only`,
	Args: cobra.ExactArgs(1),
	RunE: runSession,
}

func init() {
	addRequestFlags(sessionCmd, true)
	sessionCmd.Flags().Bool("create-only", false, "print the poll URL instead of polling it")
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	svc, err := config.BuildService(cfg, client)
	if err != nil {
		return err
	}

	form, err := flagParams(cmd)
	if err != nil {
		return err
	}

	pollOpts, err := config.PollOptions(cfg)
	if err != nil {
		return err
	}
	if mode, _ := cmd.Flags().GetString("errors"); mode != "" {
		pollOpts = append(pollOpts, apiwrapper.WithPollErrorMode(mode))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pollURL, err := svc.CreateSession(ctx, args[0], form, config.RequestOptions(cfg)...)
	if err != nil {
		return err
	}

	if createOnly, _ := cmd.Flags().GetBool("create-only"); createOnly {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), pollURL)
		return err
	}

	result, err := svc.PollSession(ctx, pollURL, pollOpts...)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}
