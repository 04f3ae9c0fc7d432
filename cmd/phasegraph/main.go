package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var version = "dev"

// app carries the state shared by every command.
type app struct {
	v        *viper.Viper
	logLevel *slog.LevelVar
	logger   *slog.Logger
	stdin    io.Reader
	// workDir is where project root discovery starts. Empty means the
	// current directory.
	workDir string
}

func newApp(stdin io.Reader, stderr io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix("PHASEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	logLevel := &slog.LevelVar{}
	logLevel.Set(slog.LevelWarn)
	return &app{
		v:        v,
		logLevel: logLevel,
		logger:   SetupLoggerWithWriter(stderr, logLevel),
		stdin:    stdin,
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "phasegraph",
		Short: "Edit a phase-ordered dependency graph",
		Long: `phasegraph builds a directed graph of work nodes arranged in phases.

Every node belongs to a phase and may depend on nodes in earlier phases.
The graph is persisted to a local store (sqlite or badger) or to a running
"phasegraph serve" process shared between terminals.

Run without a subcommand on a terminal to open the interactive editor.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.v.GetBool(FlagVerbose) {
				a.logLevel.Set(slog.LevelDebug)
				a.logger.Debug("verbose logging enabled")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				return a.runTUI(cmd)
			}
			return a.runList(cmd, false)
		},
	}

	// Persistent flags available to all commands
	pf := rootCmd.PersistentFlags()
	pf.Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	pf.String(FlagConfig, "", "Config file path (default: .phasegraph/config.yaml)")
	pf.String(FlagStore, "", "Store driver: sqlite, badger, memory, or remote")
	pf.String(FlagDB, "", "Database file (sqlite) or directory (badger)")
	pf.String(FlagSocketPath, "", "Unix socket path of the store server")
	pf.String(FlagLogFile, "", "Log file path")
	bindFlags(a.v, pf)

	rootCmd.AddCommand(
		a.newVersionCmd(),
		a.newTUICmd(),
		a.newListCmd(),
		a.newAddCmd(),
		a.newDeleteCmd(),
		a.newExportCmd(),
		a.newServeCmd(),
		a.newStatusCmd(),
		a.newStopCmd(),
	)
	return rootCmd
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "phasegraph %s\n", version)
		},
	}
}

func main() {
	a := newApp(os.Stdin, os.Stderr)
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
