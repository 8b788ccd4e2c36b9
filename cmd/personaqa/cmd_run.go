package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/qamaster/personaqa/internal/analysis"
	"github.com/qamaster/personaqa/internal/config"
	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/projectconfig"
	"github.com/qamaster/personaqa/internal/reporting"
	"github.com/qamaster/personaqa/internal/transcript"
	"github.com/spf13/cobra"
)

type runFlags struct {
	batchFlags

	rulesFile         string
	judgeInstructions string
	xlsxPath          string
	upload            bool
	minApproval       float64
	interpret         bool
	format            string
}

func newRunCommand(a *app) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a judged session of one test script against several personas",
		Long: `Run a consolidated session: the script is played by each selected persona
against the agent under test, every conversation is graded by the judge and
the evaluations are aggregated into a single report.

Exits with code 1 when --min-approval is set and the approval rate is below it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, a, f, args[0])
		},
	}

	f.batchFlags.register(cmd)
	f.engineFlags.registerJudge(cmd)
	cmd.Flags().StringVar(&f.rulesFile, "rules-file", "", "File with the rules the agent under test must follow (default: judge.rules_file)")
	cmd.Flags().StringVar(&f.judgeInstructions, "judge-instructions", "", "File with the judge instructions (default: judge.instructions_file)")
	cmd.Flags().StringVar(&f.xlsxPath, "xlsx", "", "Write a spreadsheet report to this path")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "Upload the session JSON to Azure Blob Storage")
	cmd.Flags().Float64Var(&f.minApproval, "min-approval", 0, "Fail when the approval rate (0-100) is below this value")
	cmd.Flags().BoolVar(&f.interpret, "interpret", false, "Print a plain-language interpretation of the results")
	cmd.Flags().StringVar(&f.format, "format", "default", "Output format: default, github-comment")

	return cmd
}

func runSession(cmd *cobra.Command, a *app, f *runFlags, scriptPath string) error {
	if f.format != "default" && f.format != "github-comment" {
		return fmt.Errorf("unknown output format: %s (supported: default, github-comment)", f.format)
	}
	if f.minApproval < 0 || f.minApproval > 100 {
		return &qaerrors.ValidationError{Field: "min-approval", Message: fmt.Sprintf("must be between 0 and 100, got %g", f.minApproval)}
	}

	cfg, err := f.runConfig(cmd, a,
		config.WithXLSXPath(firstNonEmpty(f.xlsxPath, a.project.Resolve(a.project.Output.XLSX))),
		config.WithUpload(f.upload),
		config.WithMinApproval(f.minApproval),
	)
	if err != nil {
		return err
	}

	if cfg.Upload() && a.project.Storage.AccountURL == "" {
		return &qaerrors.ValidationError{
			Field:      "storage.account_url",
			Message:    "--upload needs a storage account",
			Suggestion: "set storage.account_url in " + projectconfig.FileName + " or " + projectconfig.EnvAccountURL,
		}
	}

	rules, err := a.readRules(f.rulesFile)
	if err != nil {
		return err
	}

	catalog, err := a.loadCatalog()
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
	judge, err := a.newJudge(ctx, eng, f.judgeInstructions)
	if err != nil {
		return err
	}

	executor := a.newExecutor(cmd, cfg, catalog, eng)
	runner := analysis.NewSessionRunner(executor,
		analysis.WithLogger(a.logger),
		analysis.WithRand(newRand(cfg)),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running session: %s\n", scriptPath)
	fmt.Fprintf(out, "Engine: %s\n", eng.name)
	fmt.Fprintf(out, "Models: subject=%s tester=%s judge=%s\n", eng.subjectModel, eng.testerModel, eng.judgeModel)
	if cfg.Workers() > 1 {
		fmt.Fprintf(out, "Parallel: %d workers\n", cfg.Workers())
	}
	fmt.Fprintln(out)

	session, err := runner.Run(ctx, analysis.SessionRequest{
		ScriptPath:  scriptPath,
		PersonaIDs:  cfg.PersonaIDs(),
		NumPersonas: cfg.NumPersonas(),
		Mode:        cfg.Mode(),
		Subject:     subject,
		Judge:       judge,
		MaxTurns:    cfg.MaxTurns(),
		Rules:       rules,
	})
	if err != nil {
		return fmt.Errorf("session failed: %w", err)
	}

	switch f.format {
	case "github-comment":
		fmt.Fprint(out, FormatGitHubComment(session))
	default:
		printSession(out, session)
		if f.interpret {
			fmt.Fprintln(out)
			fmt.Fprint(out, reporting.FormatSessionReport(session))
		}
	}

	if err := writeSessionOutputs(ctx, a, cfg, session, out); err != nil {
		return err
	}

	return approvalGate(session, cfg.MinApproval())
}

func writeSessionOutputs(ctx context.Context, a *app, cfg *config.RunConfig, session *models.ConsolidatedSession, out io.Writer) error {
	if path := cfg.OutputPath(); path != "" {
		if err := saveJSON(session, path); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Fprintf(out, "\nResults saved to: %s\n", path)
	}

	if dir := cfg.TranscriptDir(); dir != "" {
		path, err := transcript.WriteSession(dir, session, cfg.Gzip())
		if err != nil {
			return fmt.Errorf("failed to save session transcript: %w", err)
		}
		fmt.Fprintf(out, "Session saved to: %s\n", path)
	}

	if path := cfg.JUnitPath(); path != "" {
		if err := reporting.WriteJUnitXML(reporting.ConvertToJUnit(session), path); err != nil {
			return fmt.Errorf("failed to write JUnit report: %w", err)
		}
		fmt.Fprintf(out, "JUnit report saved to: %s\n", path)
	}

	if path := cfg.XLSXPath(); path != "" {
		if err := reporting.WriteXLSX(path, session); err != nil {
			return fmt.Errorf("failed to write spreadsheet: %w", err)
		}
		fmt.Fprintf(out, "Spreadsheet saved to: %s\n", path)
	}

	if cfg.Upload() {
		uploader, err := reporting.NewBlobUploader(a.project.Storage.AccountURL, a.project.Storage.Container, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create blob uploader: %w", err)
		}
		name, err := uploader.UploadSession(ctx, session)
		if err != nil {
			return fmt.Errorf("failed to upload session: %w", err)
		}
		fmt.Fprintf(out, "Session uploaded to: %s/%s\n", a.project.Storage.Container, name)
	}

	return nil
}

// approvalGate turns a low approval rate into a TestFailureError. A zero
// threshold disables the gate.
func approvalGate(session *models.ConsolidatedSession, minApproval float64) error {
	if minApproval <= 0 {
		return nil
	}
	rate := session.Analysis.ApprovalRate
	if rate >= minApproval {
		return nil
	}
	return &TestFailureError{
		Message: fmt.Sprintf("session %s approval rate %.1f%% is below the required %.1f%%", session.SessionID, rate, minApproval),
	}
}
