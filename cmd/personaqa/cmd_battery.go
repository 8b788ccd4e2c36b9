package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/qamaster/personaqa/internal/config"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/reporting"
	"github.com/qamaster/personaqa/internal/testscript"
	"github.com/spf13/cobra"
)

func newBatteryCommand(a *app) *cobra.Command {
	f := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "battery <script>",
		Short: "Run one test script against several personas, without a judge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCells(cmd, a, f, args)
		},
	}
	f.register(cmd)

	return cmd
}

func newMatrixCommand(a *app) *cobra.Command {
	f := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "matrix <script-glob>...",
		Short: "Run every matching test script against every selected persona",
		Long: `Run a matrix of test scripts and personas. Patterns support ** globs,
ex: personaqa matrix 'scripts/**/*.md'. Results are ordered by script, then
by persona.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scripts, err := testscript.Expand(args...)
			if err != nil {
				return err
			}
			return runCells(cmd, a, f, scripts)
		},
	}
	f.register(cmd)

	return cmd
}

// runCells runs the scripts against the selected personas and reports each
// cell. Any failed cell makes the command exit with ExitTestFailed.
func runCells(cmd *cobra.Command, a *app, f *batchFlags, scripts []string) error {
	cfg, err := f.runConfig(cmd, a)
	if err != nil {
		return err
	}

	catalog, err := a.loadCatalog()
	if err != nil {
		return err
	}

	personaIDs, err := selectPersonas(cfg, catalog)
	if err != nil {
		return err
	}

	eng, err := a.newEngine(f.engineFlags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	defer func() {
		if err := eng.shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Engine shutdown failed", "error", err)
		}
	}()

	subject, err := a.newSubject(ctx, eng, f.subjectInstructions)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scripts: %d\n", len(scripts))
	fmt.Fprintf(out, "Personas: %s\n", strings.Join(personaIDs, ", "))
	fmt.Fprintf(out, "Engine: %s\n\n", eng.name)

	executor := a.newExecutor(cmd, cfg, catalog, eng)
	cells, err := executor.RunMatrix(ctx, scripts, personaIDs, subject, cfg.MaxTurns())
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	printCells(out, cells)

	if err := writeCellOutputs(cfg, runName(scripts), cells, out); err != nil {
		return err
	}

	if failed := countFailed(cells); failed > 0 {
		return &TestFailureError{
			Message: fmt.Sprintf("batch completed with %d of %d conversation(s) failed", failed, len(cells)),
		}
	}
	return nil
}

func writeCellOutputs(cfg *config.RunConfig, name string, cells []models.CellResult, out io.Writer) error {
	if path := cfg.OutputPath(); path != "" {
		if err := saveJSON(cells, path); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Fprintf(out, "\nResults saved to: %s\n", path)
	}

	if path := cfg.JUnitPath(); path != "" {
		if err := reporting.WriteJUnitXML(reporting.ConvertCellsToJUnit(name, cells), path); err != nil {
			return fmt.Errorf("failed to write JUnit report: %w", err)
		}
		fmt.Fprintf(out, "JUnit report saved to: %s\n", path)
	}

	return nil
}

// runName labels a batch in reports: the script name for a battery, the
// number of scripts for a matrix.
func runName(scripts []string) string {
	if len(scripts) == 1 {
		return filepath.Base(scripts[0])
	}
	return fmt.Sprintf("matrix of %d scripts", len(scripts))
}

func countFailed(cells []models.CellResult) int {
	n := 0
	for _, c := range cells {
		if c.IsError() {
			n++
		}
	}
	return n
}
