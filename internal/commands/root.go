package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ptbn2ofx/internal/buildinfo"
	"github.com/cleared-dev/ptbn2ofx/internal/config"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "ptbn2ofx",
		Short:   "Convert Partners Banka CSV exports to OFX statements",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "settings file (default ./"+config.DefaultFile+" when present)")
	pf.BoolVar(&opts.verbose, "verbose", false, "log skipped rows and other details")
	pf.String("currency", "", "statement currency (default CZK)")
	pf.String("bank", "", "bank identifier written to BANKID (default PTBNCZPP)")
	pf.String("account", "", "account number written to ACCTID")
	pf.String("account-type", "", "CHECKING, SAVINGS, MONEYMRKT, CREDITLINE or CD")
	pf.String("charset", "", "input encoding, e.g. utf-8 or windows-1250")

	rootCmd.AddCommand(newConvertCommand(opts))
	rootCmd.AddCommand(newPreviewCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))

	return rootCmd
}

// newLogger creates the diagnostics logger writing to the command's stderr.
func (o *globalOptions) newLogger(cmd *cobra.Command) *log.Logger {
	level := log.InfoLevel
	if o.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "ptbn2ofx",
		Level:  level,
	})
}

// settings resolves the effective settings for cmd.
func (o *globalOptions) settings(cmd *cobra.Command) (*config.Settings, error) {
	s, err := config.Build(o.configPath, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return s, nil
}
