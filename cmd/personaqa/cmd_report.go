package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/reporting"
	"github.com/qamaster/personaqa/internal/statistics"
	"github.com/qamaster/personaqa/internal/transcript"
	"github.com/spf13/cobra"
)

func newReportCommand(a *app) *cobra.Command {
	var (
		threshold float64
		format    string
	)

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Print a saved session or conversation transcript",
		Long: `Print a session saved by "personaqa run", or a single conversation
transcript. Gzipped files are read as well.

For sessions, the overall score's confidence interval is compared against
--threshold.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "default" && format != "github-comment" {
				return fmt.Errorf("unknown output format: %s (supported: default, github-comment)", format)
			}
			if threshold < 0 || threshold > 100 {
				return &qaerrors.ValidationError{Field: "threshold", Message: fmt.Sprintf("must be between 0 and 100, got %g", threshold)}
			}
			return runReport(cmd.OutOrStdout(), args[0], threshold, format)
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 70, "Score the confidence interval is compared against (0-100)")
	cmd.Flags().StringVar(&format, "format", "default", "Output format: default, github-comment")

	return cmd
}

func runReport(out io.Writer, path string, threshold float64, format string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &qaerrors.NotFoundError{Resource: "report", ID: path}
	}

	session, err := transcript.ReadSession(path)
	if err != nil {
		return err
	}

	if session.SessionID != "" {
		if format == "github-comment" {
			fmt.Fprint(out, FormatGitHubComment(session))
			return nil
		}
		printSession(out, session)
		fmt.Fprintln(out)
		fmt.Fprint(out, reporting.FormatSessionReport(session))
		fmt.Fprintln(out)
		fmt.Fprintln(out, ciVerdict(session.Analysis.OverallScoreCI, threshold))
		return nil
	}

	result, err := transcript.Read(path)
	if err != nil {
		return err
	}
	if result.TestID == "" {
		return &qaerrors.ValidationError{
			Field:      "file",
			Message:    fmt.Sprintf("%s is neither a session nor a transcript", path),
			Suggestion: "pass a file written by --output or --transcripts",
		}
	}

	printTranscript(out, result)
	return nil
}

// ciVerdict says where the overall score interval sits relative to threshold.
func ciVerdict(ci *models.ConfidenceInterval, threshold float64) string {
	if ci == nil {
		return "Confidence: no scored conversations"
	}

	level := ci.ConfidenceLevel * 100
	switch {
	case statistics.Above(*ci, threshold):
		return passStyle.Render(fmt.Sprintf("Confidence: overall score is above %.0f (%.0f%% CI [%.1f, %.1f])", threshold, level, ci.Lower, ci.Upper))
	case statistics.Below(*ci, threshold):
		return failStyle.Render(fmt.Sprintf("Confidence: overall score is below %.0f (%.0f%% CI [%.1f, %.1f])", threshold, level, ci.Lower, ci.Upper))
	default:
		return warnStyle.Render(fmt.Sprintf("Confidence: inconclusive against %.0f (%.0f%% CI [%.1f, %.1f])", threshold, level, ci.Lower, ci.Upper))
	}
}

func printTranscript(w io.Writer, r *models.TestResult) {
	fmt.Fprintln(w, titleStyle.Render("CONVERSATION "+r.TestID))
	fmt.Fprintf(w, "Persona: %s (%s)\n", r.PersonaName, r.PersonaID)
	fmt.Fprintf(w, "Script:  %s\n", r.TestScriptName)
	fmt.Fprintf(w, "Turns:   %d", r.TotalTurns)
	if r.StopReason != "" {
		fmt.Fprintf(w, " (%s)", r.StopReason)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	for _, m := range r.Conversation {
		speaker := "subject"
		if m.Role == models.RoleUser {
			speaker = r.PersonaName
		}
		fmt.Fprintf(w, "[%d] %s: %s\n", m.Turn, speaker, m.Content)
	}
}
