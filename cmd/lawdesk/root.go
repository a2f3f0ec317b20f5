package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/ai-lawdesk/config"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
)

var (
	flagConfig    string
	flagVerbose   bool
	flagLogFormat string
)

// NewRootCmd builds the lawdesk command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lawdesk",
		Short:         "刑事事件の法律相談に答える対話エンジン",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format (text or json); defaults to LAWDESK_LOG_FORMAT")

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config. Logging flags override
// LAWDESK_LOG_FORMAT and LAWDESK_LOG_LEVEL. Logs go to stderr so stdout
// stays free for replies and MCP frames.
func loadConfig() (*config.Config, error) {
	if flagVerbose || flagLogFormat != "" {
		format, level := flagLogFormat, os.Getenv("LAWDESK_LOG_LEVEL")
		if format == "" {
			format = os.Getenv("LAWDESK_LOG_FORMAT")
		}
		if flagVerbose {
			level = "debug"
		}
		logging.SetLogger(logging.New(os.Stderr, format, level))
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
