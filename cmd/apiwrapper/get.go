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

var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Send a single GET request",
	Long: `Send one GET request to a path below the profile's base_url and print
the response body.

The profile's params and headers are sent with the request. The error mode
comes from the profile's error_mode unless --errors overrides it.`,
	Example: `  apiwrapper get reference/v1.0/countries/en-GB -c api.yaml
  apiwrapper get markets -c api.yaml -p locale=en-GB --errors graceful`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	addRequestFlags(getCmd, true)
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	svc, err := config.BuildService(cfg, client)
	if err != nil {
		return err
	}

	params, err := flagParams(cmd)
	if err != nil {
		return err
	}

	opts := config.RequestOptions(cfg)
	opts = append(opts, apiwrapper.WithParams(params))
	if mode, _ := cmd.Flags().GetString("errors"); mode != "" {
		opts = append(opts, apiwrapper.WithErrorMode(mode))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := svc.Get(ctx, args[0], opts...)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}
