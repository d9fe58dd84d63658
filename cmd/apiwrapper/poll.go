package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/apiwrapper"
	"github.com/jpalmerr/apiwrapper/config"
)

var pollCmd = &cobra.Command{
	Use:   "poll <url>",
	Short: "Poll a URL until it reports completion",
	Long: `Poll an absolute URL until the completion predicate holds or the
attempt budget runs out, then print the last response body.

Without a profile the defaults apply: 2s initial delay, 1s between attempts,
20 attempts, strict mode, and completion when the Status field is
UpdatesComplete, COMPLETE or true.`,
	Example: `  apiwrapper poll https://api.example.com/pricing/v1.0/abc123 -c api.yaml
  apiwrapper poll http://localhost:9999/jobs/1 --errors graceful`,
	Args: cobra.ExactArgs(1),
	RunE: runPoll,
}

func init() {
	addRequestFlags(pollCmd, false)
	rootCmd.AddCommand(pollCmd)
}

func runPoll(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	opts, err := pollOptions(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := client.Poll(ctx, args[0], opts...)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}

// pollOptions combines the profile's poll settings with the --param and
// --errors flags.
func pollOptions(cmd *cobra.Command, cfg *config.Config) ([]apiwrapper.PollOption, error) {
	opts, err := config.PollOptions(cfg)
	if err != nil {
		return nil, err
	}

	params, err := flagParams(cmd)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		opts = append(opts, apiwrapper.WithPollParams(params))
	}
	if mode, _ := cmd.Flags().GetString("errors"); mode != "" {
		opts = append(opts, apiwrapper.WithPollErrorMode(mode))
	}
	return opts, nil
}
