// Package cli implements the investtrack command-line interface. Commands
// stand in for a service tier: each one reads the whole store, applies one
// change and writes it back.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/investtrack/internal/logger"
	"github.com/mesh-intelligence/investtrack/internal/paths"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	cfg       types.Config
	logger    *zap.Logger
	newLogger func(types.LogConfig) (*zap.Logger, error)
	now       func() time.Time
}

// NewRootCmd creates the top-level "investtrack" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{logger: zap.NewNop(), newLogger: logger.New, now: time.Now}

	root := &cobra.Command{
		Use:   "investtrack",
		Short: "Track investments stored in a spreadsheet",
		Long: "investtrack keeps investments, their dated entries and forecasts in a\n" +
			"Google Sheets spreadsheet or a local SQLite workbook with the same layout.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: per-user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory for the sqlite backend (default: per-user data dir)")
	root.PersistentFlags().StringVar(&a.flags.backend, "backend", "", "override the configured backend (sheets or sqlite)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newSummaryCmd(a))
	root.AddCommand(newInvestmentCmd(a))
	root.AddCommand(newEntryCmd(a))
	root.AddCommand(newForecastCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))

	return root, a
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root, a := newRoot()
	os.Exit(run(root, a, os.Args[1:], os.Stderr))
}

// run executes root with args, flushes the logger and returns the process
// exit code.
func run(root *cobra.Command, a *app, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	a.syncLogger()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup resolves directories, loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return userErr(err)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg.DataDir = dataDir
	if a.flags.backend != "" {
		cfg.Backend = a.flags.backend
	}
	if a.flags.verbose {
		cfg.Log.Level = "debug"
	}

	l, err := a.newLogger(cfg.Log)
	if err != nil {
		return userErr(fmt.Errorf("build logger: %w", err))
	}

	a.configDir = configDir
	a.cfg = cfg
	a.logger = l
	return nil
}

// syncLogger flushes buffered log output. Syncing a terminal stderr fails
// with EINVAL on some platforms, so errors are ignored.
func (a *app) syncLogger() {
	_ = a.logger.Sync()
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userErr(err error) error { return &exitError{code: exitUserError, err: err} }
func sysErr(err error) error  { return &exitError{code: exitSysError, err: err} }

// exitCode maps err to a process exit code. Store failures are system
// errors; everything else, including bad flags and missing records, is the
// user's.
func exitCode(err error) int {
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	if errors.Is(err, types.ErrIO) {
		return exitSysError
	}
	return exitUserError
}
