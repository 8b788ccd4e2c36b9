package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/persona"
	"github.com/qamaster/personaqa/internal/projectconfig"
	"github.com/spf13/cobra"
)

var version = "dev"

// app is the state shared by every subcommand. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	logger  *slog.Logger
	project *projectconfig.ProjectConfig

	// overridable in tests
	workDir string
	getenv  func(string) string

	debug       bool
	logFormat   string
	catalogPath string
}

func newRootCommand() *cobra.Command {
	return newRootCommandFor(&app{getenv: os.Getenv})
}

func newRootCommandFor(a *app) *cobra.Command {
	a.logger = slog.New(slog.DiscardHandler)

	cmd := &cobra.Command{
		Use:   "personaqa",
		Short: "personaqa - persona-driven conversation tests for AI agents",
		Long: `personaqa puts an AI agent under test in front of simulated customers.

Each persona from the catalog is combined with a test script to drive a
tester agent through a full conversation with the subject. A judge agent
grades every conversation and the results are consolidated into a session
report.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "Log format: text, json")
	cmd.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "Persona catalog JSON (default: paths.catalog from .personaqa.yaml)")

	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newBatteryCommand(a))
	cmd.AddCommand(newMatrixCommand(a))
	cmd.AddCommand(newPersonasCommand(a))
	cmd.AddCommand(newComposeCommand(a))
	cmd.AddCommand(newReportCommand(a))

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

func (a *app) setup(logOut io.Writer) error {
	logger, err := newLogger(logOut, a.logFormat, a.debug)
	if err != nil {
		return err
	}
	a.logger = logger

	dir := a.workDir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
	}

	project, err := projectconfig.Load(dir)
	if err != nil {
		return err
	}
	project.ApplyEnv(a.getenv)
	a.project = project

	if project.Dir != "" {
		a.logger.Debug("Loaded project configuration", "dir", project.Dir)
	}
	return nil
}

func newLogger(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, &qaerrors.ValidationError{
			Field:      "log-format",
			Message:    fmt.Sprintf("unknown log format %q", format),
			Suggestion: "use text or json",
		}
	}
}

// loadCatalog loads the persona catalog named by --catalog, falling back to
// the project file.
func (a *app) loadCatalog() (*persona.Catalog, error) {
	path := a.catalogPath
	if path == "" {
		path = a.project.Resolve(a.project.Paths.Catalog)
	}
	return persona.Load(path, a.logger)
}
