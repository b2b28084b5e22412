package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/segaudit/segmenta/internal/audit"
	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/report"
)

var auditFlags struct {
	networksFile  string
	export        string
	simple        bool
	dashboard     bool
	noDashboard   bool
	jobs          int
	noInteractive bool
	dumpConfig    bool
}

func registerAuditFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&auditFlags.networksFile, "file", "f", "",
		"file with target networks, one CIDR or range per line")
	flags.StringVarP(&auditFlags.export, "export", "e", "",
		"export format: csv, json, markdown or all")
	flags.BoolVarP(&auditFlags.simple, "simple", "s", false,
		"print only the segment summary")
	flags.BoolVar(&auditFlags.dashboard, "dashboard", false,
		"write the HTML dashboard")
	flags.BoolVar(&auditFlags.noDashboard, "no-dashboard", false,
		"suppress the HTML dashboard")
	flags.IntVarP(&auditFlags.jobs, "jobs", "j", 0,
		"parallel scan jobs (1-10, default from config)")
	flags.BoolVar(&auditFlags.noInteractive, "no-interactive", false,
		"never prompt for confirmation")
	flags.BoolVar(&auditFlags.dumpConfig, "dump-config", false,
		"print the effective configuration and exit")
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg := loadedConfig

	if auditFlags.dumpConfig {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	}

	if auditFlags.dashboard && auditFlags.noDashboard {
		return errors.NewValidationError("--dashboard and --no-dashboard are mutually exclusive", "")
	}
	switch auditFlags.export {
	case "", report.FormatCSV, report.FormatJSON, report.FormatMarkdown, report.FormatAll:
	default:
		return errors.NewValidationError("export format must be csv, json, markdown or all",
			auditFlags.export)
	}
	if auditFlags.jobs != 0 {
		if auditFlags.jobs < 1 || auditFlags.jobs > 10 {
			return errors.NewValidationError("jobs must be between 1 and 10",
				fmt.Sprintf("%d", auditFlags.jobs))
		}
		cfg.Scanning.Jobs = auditFlags.jobs
	}

	dashboard := cfg.Export.Dashboard
	if auditFlags.dashboard {
		dashboard = true
	}
	if auditFlags.noDashboard {
		dashboard = false
	}
	// The dashboard accompanies exports; a bare console run stays bare
	// unless explicitly requested.
	if auditFlags.export == "" && !auditFlags.dashboard {
		dashboard = false
	}

	if auditFlags.networksFile == "" && !auditFlags.noInteractive {
		if !confirmFullSweep(cmd) {
			return errors.NewValidationError("aborted", "")
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := audit.NewRunner(cfg, cmd.OutOrStdout())
	err := runner.Run(ctx, audit.Options{
		NetworksFile: auditFlags.networksFile,
		Format:       auditFlags.export,
		Simple:       auditFlags.simple,
		Dashboard:    dashboard,
	})
	if err != nil && ctx.Err() != nil {
		return errors.WrapScanError(errors.CodeCanceled, "audit interrupted", err)
	}
	return err
}

// confirmFullSweep asks before scanning every RFC 1918 /24 block, which
// takes hours on most networks.
func confirmFullSweep(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(),
		"No network file given. Scan all RFC 1918 private ranges? This can take hours. [y/N] ")

	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
