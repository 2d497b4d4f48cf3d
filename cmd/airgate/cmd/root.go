// Package cmd provides the CLI commands for airgate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skyroute/airgate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "airgate",
	Short: "airgate - REST gateway for a SOAP reservation backend",
	Long: `airgate exposes a SOAP airline reservation backend as a JSON REST API.

It threads the backend's session cookies across the calls of one booking
workflow, keyed by a search_id, and writes every SOAP request and response
to a per-search artifact directory.

Quick start:
  1. Create a config file: airgate.yaml
  2. Run: airgate start

Configuration:
  Config is loaded from airgate.yaml in the current directory,
  $HOME/.airgate/, or /etc/airgate/.

  Environment variables can override config values with the AIRGATE_ prefix.
  Example: AIRGATE_UPSTREAM_PASSWORD=secret

Commands:
  start       Start the gateway
  stop        Stop the running gateway
  config      Print the effective configuration
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./airgate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
