// Command sheetcalc evaluates, edits, checks, converts and serves
// spreadsheets stored as .xml or .xlsx files.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/config"
	"github.com/vogtb/go-spreadsheet/packages/persist"
	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once the configuration
// has been loaded
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *persist.FileStore
}

// spreadsheetOptions returns the configured name policy, normalizer and
// logger as spreadsheet options
func (a *app) spreadsheetOptions() ([]spreadsheet.Option, error) {
	return a.cfg.SpreadsheetOptions(a.logger)
}

// newSpreadsheet creates an empty spreadsheet with the configured options
func (a *app) newSpreadsheet() (*spreadsheet.Spreadsheet, error) {
	opts, err := a.spreadsheetOptions()
	if err != nil {
		return nil, err
	}
	return spreadsheet.NewSpreadsheet(opts...), nil
}

// open reads path with the configured policy
func (a *app) open(cmd *cobra.Command, path string) (*spreadsheet.Spreadsheet, error) {
	opts, err := a.spreadsheetOptions()
	if err != nil {
		return nil, err
	}
	policy, err := a.cfg.NamePolicy()
	if err != nil {
		return nil, err
	}
	return a.store.Open(cmd.Context(), path, policy, opts...)
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "sheetcalc",
		Short:         "Evaluate and manage formula spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			logger, err := cfg.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}

			a.cfg = cfg
			a.logger = logger
			a.store = persist.NewFileStore(logger)
			a.store.LockTimeout = cfg.Storage.LockTimeout.Duration
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "sheetcalc.toml", "Path to the TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newEvalCmd(a),
		newApplyCmd(a),
		newShowCmd(a),
		newCheckCmd(a),
		newConvertCmd(a),
		newServeCmd(a),
	)

	return rootCmd
}
