package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/orchestration"
	"github.com/qamaster/personaqa/internal/reporting"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

// truncate shortens s to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// printTable writes rows aligned on display width, so accented names and
// emoji don't break the columns. Cells are padded before they're styled.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = headerStyle.Render(padRight(h, widths[i]))
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))

	for _, row := range rows {
		for i, cell := range row {
			cells[i] = padRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells[:len(row)], "  "), " "))
	}
}

// progressPrinter turns executor events into progress lines. Events can
// arrive from several workers at once.
type progressPrinter struct {
	w       io.Writer
	verbose bool
	mu      sync.Mutex
}

func newProgressPrinter(w io.Writer, verbose bool) *progressPrinter {
	return &progressPrinter{w: w, verbose: verbose}
}

func (p *progressPrinter) listen(event orchestration.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	duration := formatDuration(time.Duration(event.DurationMs) * time.Millisecond)

	switch event.EventType {
	case orchestration.EventBatchStart:
		fmt.Fprintf(p.w, "Starting %d conversation(s)...\n", event.TotalCells)
	case orchestration.EventCellStart:
		if p.verbose {
			fmt.Fprintf(p.w, "  [%d/%d] %s × %s...\n", event.CellNum, event.TotalCells, event.Script, event.PersonaID)
		}
	case orchestration.EventCellComplete:
		line := fmt.Sprintf("%s [%d/%d] %s × %s (%s)", passStyle.Render("✓"),
			event.CellNum, event.TotalCells, event.Script, event.PersonaID, duration)
		if p.verbose {
			if turns, ok := event.Details["turns"].(int); ok {
				line += fmt.Sprintf(" turns=%d", turns)
			}
			if natural, ok := event.Details["natural"].(bool); ok && !natural {
				line += " " + warnStyle.Render("[limit]")
			}
		}
		fmt.Fprintln(p.w, line)
	case orchestration.EventCellError:
		fmt.Fprintf(p.w, "%s [%d/%d] %s × %s: %s\n", failStyle.Render("✗"),
			event.CellNum, event.TotalCells, event.Script, event.PersonaID, truncate(event.Error, 200))
	case orchestration.EventBatchComplete:
		fmt.Fprintf(p.w, "Conversations completed in %s\n\n", duration)
	case orchestration.EventEvaluationStart:
		if p.verbose {
			fmt.Fprintf(p.w, "  Judging %s [%d/%d]...\n", event.PersonaID, event.CellNum, event.TotalCells)
		}
	case orchestration.EventEvaluationComplete:
		if event.Error != "" {
			fmt.Fprintf(p.w, "%s judge %s: %s\n", warnStyle.Render("!"), event.PersonaID, truncate(event.Error, 200))
			return
		}
		score, hasScore := event.Details["score"].(int)
		approved, _ := event.Details["approved"].(bool)
		switch {
		case !hasScore:
			fmt.Fprintf(p.w, "%s judge %s: no scores\n", warnStyle.Render("!"), event.PersonaID)
		case approved:
			fmt.Fprintf(p.w, "%s judge %s: %d (%s)\n", passStyle.Render("✓"), event.PersonaID, score, duration)
		default:
			fmt.Fprintf(p.w, "%s judge %s: %d (%s)\n", failStyle.Render("✗"), event.PersonaID, score, duration)
		}
	}
}

func verdictCell(r models.PersonaScoreSummary) (string, lipgloss.Style) {
	switch {
	case r.Error != nil:
		return "ERRO", warnStyle
	case r.Approved:
		return string(models.VerdictApproved), passStyle
	default:
		return string(models.VerdictRejected), failStyle
	}
}

func printSession(w io.Writer, s *models.ConsolidatedSession) {
	a := s.Analysis
	duration := time.Duration(s.DurationSeconds * float64(time.Second))

	summary := []string{
		titleStyle.Render("SESSION RESULTS"),
		"",
		fmt.Sprintf("Session:        %s", s.SessionID),
		fmt.Sprintf("Script:         %s", s.TestScriptName),
		fmt.Sprintf("Personas:       %d", s.NumPersonas),
		fmt.Sprintf("Approved:       %d", a.Approved),
		fmt.Sprintf("Rejected:       %d", a.Rejected),
		fmt.Sprintf("Attention:      %d", a.NeedsAttention),
		fmt.Sprintf("Approval Rate:  %.1f%%", a.ApprovalRate),
		fmt.Sprintf("Mean Score:     %d", a.MeanOverallScore),
	}
	if ci := a.OverallScoreCI; ci != nil {
		summary = append(summary, fmt.Sprintf("%-16s[%.1f, %.1f]", fmt.Sprintf("CI %.0f%%:", ci.ConfidenceLevel*100), ci.Lower, ci.Upper))
	}
	summary = append(summary, fmt.Sprintf("Duration:       %s", formatDuration(duration)))

	fmt.Fprintln(w, boxStyle.Render(strings.Join(summary, "\n")))
	fmt.Fprintln(w)

	fmt.Fprintln(w, titleStyle.Render("PER-PERSONA BREAKDOWN"))
	headers := []string{"PERSONA", "SCORE", "RESULT"}
	rows := make([][]string, 0, len(s.PersonaResults))
	var styles []lipgloss.Style
	for _, r := range s.PersonaResults {
		score := "-"
		if r.Scores != nil {
			score = fmt.Sprintf("%d", r.Scores.Overall)
		}
		verdict, style := verdictCell(r)
		rows = append(rows, []string{fmt.Sprintf("%s (%s)", r.PersonaName, r.PersonaID), score, verdict})
		styles = append(styles, style)
	}
	printStyledRows(w, headers, rows, styles)
	fmt.Fprintln(w)

	fmt.Fprintln(w, a.Conclusion)
}

// printStyledRows is printTable with the last column of each row styled.
func printStyledRows(w io.Writer, headers []string, rows [][]string, styles []lipgloss.Style) {
	var b strings.Builder
	printTable(&b, headers, rows)

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	fmt.Fprintln(w, lines[0])
	for i, line := range lines[1:] {
		last := rows[i][len(rows[i])-1]
		idx := strings.LastIndex(line, last)
		if idx < 0 {
			fmt.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line[:idx]+styles[i].Render(last)+line[idx+len(last):])
	}
}

func printCells(w io.Writer, cells []models.CellResult) {
	fmt.Fprintln(w, titleStyle.Render("CONVERSATIONS"))

	headers := []string{"SCRIPT", "PERSONA", "TURNS", "STATUS"}
	rows := make([][]string, 0, len(cells))
	var styles []lipgloss.Style
	for _, c := range cells {
		if c.IsError() {
			rows = append(rows, []string{c.Error.TestScriptName, c.PersonaID(), "-", "ERRO"})
			styles = append(styles, failStyle)
			continue
		}
		r := c.Result
		status, style := "FIM", passStyle
		if !r.NaturalTermination {
			status, style = "LIMITE", warnStyle
		}
		rows = append(rows, []string{r.TestScriptName, fmt.Sprintf("%s (%s)", r.PersonaName, r.PersonaID), fmt.Sprintf("%d", r.TotalTurns), status})
		styles = append(styles, style)
	}
	printStyledRows(w, headers, rows, styles)

	failed := countFailed(cells)
	fmt.Fprintf(w, "\n%d conversation(s), %d completed, %d failed\n", len(cells), len(cells)-failed, failed)

	for _, c := range cells {
		if c.IsError() {
			fmt.Fprintf(w, "  - %s × %s: %s\n", c.Error.TestScriptName, c.Error.PersonaID, c.Error.Error)
		}
	}
}

// FormatGitHubComment formats a session as a markdown comment for GitHub PRs.
func FormatGitHubComment(s *models.ConsolidatedSession) string {
	var b strings.Builder
	a := s.Analysis

	b.WriteString("## 🧪 Persona Test Results\n\n")

	statusIcon := "✅ Passed"
	if a.Rejected > 0 || a.NeedsAttention > 0 || hasErrors(s) {
		statusIcon = "❌ Needs review"
	}
	duration := time.Duration(s.DurationSeconds * float64(time.Second))

	b.WriteString(fmt.Sprintf("**Status:** %s | **Mean Score:** %d | **Approval:** %.1f%% | **Duration:** %s\n\n",
		statusIcon, a.MeanOverallScore, a.ApprovalRate, formatDuration(duration)))

	b.WriteString(fmt.Sprintf("- **Personas:** %d total, %d approved, %d rejected, %d attention\n",
		s.NumPersonas, a.Approved, a.Rejected, a.NeedsAttention))
	b.WriteString(fmt.Sprintf("- **Interpretation:** %s\n\n", reporting.InterpretScore(a.MeanOverallScore)))

	b.WriteString("### Personas\n\n")
	b.WriteString("| Persona | Score | Result |\n")
	b.WriteString("|---------|-------|--------|\n")
	for _, r := range s.PersonaResults {
		score := "-"
		if r.Scores != nil {
			score = fmt.Sprintf("%d", r.Scores.Overall)
		}
		icon := "✅"
		switch {
		case r.Error != nil:
			icon = "⚠️ " + *r.Error
		case !r.Approved:
			icon = "❌"
		}
		b.WriteString(fmt.Sprintf("| %s (%s) | %s | %s |\n", r.PersonaName, r.PersonaID, score, icon))
	}
	b.WriteString("\n")

	writeMarkdownList(&b, "Recurring Weaknesses", a.RecurringWeaknesses)
	writeMarkdownList(&b, "Priority Recommendations", a.PriorityRecommendations)

	b.WriteString("---\n\n")
	b.WriteString(fmt.Sprintf("**Session:** %s | **Script:** %s\n\n", s.SessionID, s.TestScriptName))
	b.WriteString(a.Conclusion + "\n")

	return b.String()
}

func writeMarkdownList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("### %s\n\n", title))
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}

func hasErrors(s *models.ConsolidatedSession) bool {
	for _, r := range s.PersonaResults {
		if r.Error != nil {
			return true
		}
	}
	return false
}
