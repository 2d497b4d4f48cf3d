package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skyroute/airgate/internal/config"
)

const redacted = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration airgate would start with, after defaults and
environment overrides are applied. The upstream password is redacted.

Examples:
  # Show the merged configuration
  airgate config

  # Check a config file without starting the server
  airgate --config ./airgate.yaml config --validate`,
	RunE: runConfig,
}

var validateOnly bool

func init() {
	configCmd.Flags().BoolVar(&validateOnly, "validate", false, "only validate the configuration")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if validateOnly {
		fmt.Fprintln(out, "configuration is valid")
		return nil
	}
	if file := config.ConfigFileUsed(); file != "" {
		fmt.Fprintf(out, "# loaded from %s\n", file)
	}
	return writeConfig(out, cfg)
}

// writeConfig encodes cfg as YAML with secrets redacted.
func writeConfig(w io.Writer, cfg *config.Config) error {
	safe := *cfg
	if safe.Upstream.Password != "" {
		safe.Upstream.Password = redacted
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&safe); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
