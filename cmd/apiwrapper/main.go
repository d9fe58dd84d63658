// Package main is the entry point for the apiwrapper CLI.
//
// apiwrapper can be used either as a library (SDK) or from the command line
// with a YAML profile describing the API. This CLI provides the latter.
//
// Usage:
//
//	apiwrapper get reference/countries -c api.yaml     # Single request
//	apiwrapper session pricing/v1.0 -c api.yaml -p country=UK
//	apiwrapper poll https://api.example.com/s/1 -c api.yaml
//	apiwrapper validate -c api.yaml                    # Validate profile
//	apiwrapper version                                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "apiwrapper",
	Short: "A client for REST APIs with session polling",
	Long: `apiwrapper calls REST-style APIs that answer in JSON or XML.

It issues single requests under a configurable error mode and drives
"create a session, then poll until complete" workflows.

Quick start:
  1. Create a profile (api.yaml)
  2. Run: apiwrapper session pricing/v1.0 -c api.yaml -p country=UK
  3. The completed session is printed to stdout

Example profile:
  base_url: https://partners.api.example.com/apiservices
  params:
    apiKey: ${API_KEY}
  poll:
    error_mode: graceful`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this apiwrapper binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("apiwrapper %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every request at debug level")
	rootCmd.AddCommand(versionCmd)
}
