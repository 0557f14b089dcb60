package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/branchflow/internal/config"
	"github.com/aretw0/branchflow/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool

	cfg    = config.Default()
	logger = logging.NewNop()
)

// errIssuesFound makes validate exit non-zero after printing its report.
var errIssuesFound = errors.New("flow has validation issues")

var rootCmd = &cobra.Command{
	Use:   "branchflow",
	Short: "branchflow checks and draws branching conversation flows",
	Long: `branchflow validates chatbot decision trees (reachability, cycles, dangling
options), routes the connection curves between option slots and their targets,
and serves both over HTTP and MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errIssuesFound) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default "+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func setup() error {
	loaded, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(loaded.Log.Level)
	if err != nil {
		return err
	}
	if debug {
		level = slog.LevelDebug
	}

	cfg = loaded
	logger = logging.NewWithWriter(os.Stderr, level, logging.Format(loaded.Log.Format))
	slog.SetDefault(logger)
	return nil
}
