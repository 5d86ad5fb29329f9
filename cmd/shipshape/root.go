package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/shipshape/internal/config"
	"github.com/dshills/shipshape/internal/logging"
	"github.com/dshills/shipshape/internal/store"
)

// Exit codes.
const (
	exitThreshold = 2
	exitInput     = 3
	exitStore     = 4
	exitOutput    = 5
)

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// app is the state shared by every command once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	v        *viper.Viper
	settings *config.Settings
	logger   *logging.Logger
	log      zerolog.Logger
	backend  store.Store
	stores   store.Report

	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, v: config.New(), now: time.Now}

	root := &cobra.Command{
		Use:           "shipshape",
		Short:         "Normalize vessel inspection findings and build paginated condition reports",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default: shipshape.yaml in . or ~/.config/shipshape)")
	pf.String("report-id", "default", "Report id used as the store key")
	pf.String("store", store.DriverFile, "Store driver: memory, file or sqlite")
	pf.String("store-path", ".shipshape", "Store directory (file) or database file (sqlite)")
	pf.BoolVar(&a.verbose, "verbose", false, "Log debug output")
	pf.String("log-file", "", "Append logs to this file instead of stderr")

	root.AddCommand(
		newReportCmd(a),
		newFindingsCmd(a),
		newOverrideCmd(a),
		newMetaCmd(a),
		newIngestCmd(a),
		newEditCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return exitError(exitInput, "%v", err)
	}
	s, err := config.Load(a.v, a.configPath)
	if err != nil {
		return exitError(exitInput, "failed to load config: %v", err)
	}
	a.settings = s

	level, err := logging.ParseLevel(s.Log.Level)
	if err != nil {
		return exitError(exitInput, "%v", err)
	}
	if a.verbose {
		level = zerolog.DebugLevel
	}
	l, err := logging.New().To(a.errOut).FromPath(s.Log.File).Level(level).Make()
	if err != nil {
		return exitError(exitInput, "failed to open log file: %v", err)
	}
	a.logger = l
	a.log = l.With().Str("report_id", s.Report.ID).Logger()
	return nil
}

// openStore opens the configured backend. Commands that touch the store
// call it lazily so batch-only commands work without a writable store path.
func (a *app) openStore() error {
	if a.backend != nil {
		return nil
	}
	s, err := store.Open(a.settings.Store.Driver, a.settings.Store.Path)
	if err != nil {
		return exitError(exitStore, "failed to open %s store: %v", a.settings.Store.Driver, err)
	}
	a.backend = s
	a.stores = store.ForBackend(s)
	a.log.Debug().Str("driver", a.settings.Store.Driver).Str("path", a.settings.Store.Path).Msg("store opened")
	return nil
}

func (a *app) close() {
	if c, ok := a.backend.(io.Closer); ok {
		_ = c.Close()
	}
	a.backend = nil
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// run wraps a command body so the store and log file are released however
// it returns.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *app) reportID() string { return a.settings.Report.ID }

// writeOutput writes data to path, or to the command output when path is
// empty.
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" {
		if _, err := a.out.Write(data); err != nil {
			return exitError(exitOutput, "failed to write output: %v", err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return exitError(exitOutput, "failed to write output: %v", err)
	}
	a.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("output written")
	return nil
}
