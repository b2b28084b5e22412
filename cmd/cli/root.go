// Package cli implements the segmenta command line: a single-purpose
// cobra command that runs a network segmentation audit with optional
// export flags.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/segaudit/segmenta/internal/config"
	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
)

// Exit codes. Interrupted runs exit like a signal-killed process would.
const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

// Build information, set by ldflags.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "segmenta",
	Short: "Network segmentation auditor",
	Long: `Segmenta audits network segmentation by scanning address ranges for
exposed services. It measures path latency to pick a scanning profile,
fans scans out across networks in parallel, and reports discovered
services grouped by segment and category.`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			return errors.NewValidationError("--verbose and --quiet are mutually exclusive", "")
		}
		return nil
	},
	RunE: runAudit,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if errors.IsCode(err, errors.CodeCanceled) {
			fmt.Fprintln(os.Stderr, "interrupted")
			return exitInterrupted
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitError
	}
	return exitOK
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./segmenta.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"only log warnings and errors")

	registerAuditFlags(rootCmd.Flags())
}

// loadedConfig is built by initConfig and consumed by runAudit.
var loadedConfig *config.Config

func initConfig() {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("segmenta.yaml"); err == nil {
			path = "segmenta.yaml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitError)
	}

	switch {
	case verbose:
		cfg.Logging.Level = "debug"
	case quiet:
		cfg.Logging.Level = "warn"
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: cannot initialize logging:", err)
		os.Exit(exitError)
	}
	logging.SetDefault(logger)
	loadedConfig = cfg
}
