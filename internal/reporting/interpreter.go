package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/qamaster/personaqa/internal/models"
)

// InterpretScore returns a plain-language label for a judge score (0-100).
func InterpretScore(score int) string {
	switch {
	case score > 90:
		return "Excellent (>90)"
	case score >= 70:
		return "Good (70-90)"
	case score >= 50:
		return "Needs Work (50-70)"
	default:
		return "Poor (<50)"
	}
}

// InterpretApproval returns a human-readable explanation of an approval rate (0-100).
func InterpretApproval(rate float64) string {
	switch {
	case rate >= 100:
		return fmt.Sprintf("Every conversation was approved (%.1f%%)", rate)
	case rate >= 80:
		return fmt.Sprintf("Most conversations were approved (%.1f%%)", rate)
	case rate >= 50:
		return fmt.Sprintf("About half the conversations were approved (%.1f%%)", rate)
	default:
		return fmt.Sprintf("Few conversations were approved (%.1f%%)", rate)
	}
}

// InterpretCI explains what the bootstrap interval says about the mean score.
func InterpretCI(ci *models.ConfidenceInterval) string {
	if ci == nil {
		return "Not enough scored conversations for a confidence interval."
	}
	if ci.NumBootstraps == 0 {
		return fmt.Sprintf("Single scored conversation (%.1f), no spread to estimate.", ci.Mean)
	}
	return fmt.Sprintf("%.0f%% confident the mean score lies in [%.1f, %.1f] (width %.1f).",
		ci.ConfidenceLevel*100, ci.Lower, ci.Upper, ci.Upper-ci.Lower)
}

// FormatSessionReport produces a full plain-language report from a consolidated session.
func FormatSessionReport(s *models.ConsolidatedSession) string {
	var b strings.Builder

	ga := s.Analysis
	duration := time.Duration(s.DurationSeconds * float64(time.Second)).Round(time.Millisecond)

	b.WriteString("=== Interpretation ===\n\n")

	fmt.Fprintf(&b, "Session:       %s (%s)\n", s.SessionID, s.TestScriptName)
	fmt.Fprintf(&b, "Mean Score:    %d - %s\n", ga.MeanOverallScore, InterpretScore(ga.MeanOverallScore))
	fmt.Fprintf(&b, "Approval:      %s\n", InterpretApproval(ga.ApprovalRate))
	fmt.Fprintf(&b, "Confidence:    %s\n", InterpretCI(ga.OverallScoreCI))
	fmt.Fprintf(&b, "Duration:      %v\n", duration)
	fmt.Fprintf(&b, "Tests:         %d approved, %d rejected, %d need attention out of %d total\n",
		ga.Approved, ga.Rejected, ga.NeedsAttention, ga.TotalTests)

	if ga.OverallScoreCI != nil {
		ms := ga.MeanScores
		b.WriteString("\nMean Scores:\n")
		fmt.Fprintf(&b, "  Compliance:             %d\n", ms.Compliance)
		fmt.Fprintf(&b, "  Efficacy:               %d\n", ms.Efficacy)
		fmt.Fprintf(&b, "  Efficiency:             %d\n", ms.Efficiency)
		fmt.Fprintf(&b, "  Communication Quality:  %d\n", ms.CommunicationQuality)
		fmt.Fprintf(&b, "  User Experience:        %d\n", ms.UserExperience)
	}

	// Per-persona interpretation
	if len(s.PersonaResults) > 0 {
		b.WriteString("\nPer-Persona Interpretation:\n")
		for _, pr := range s.PersonaResults {
			switch {
			case pr.Error != nil:
				fmt.Fprintf(&b, "  ! %s: %s\n", pr.PersonaName, *pr.Error)
			case pr.Approved:
				fmt.Fprintf(&b, "  ✓ %s: %d - %s\n", pr.PersonaName, pr.Scores.Overall, InterpretScore(pr.Scores.Overall))
			default:
				fmt.Fprintf(&b, "  ✗ %s: %d - %s\n", pr.PersonaName, pr.Scores.Overall, InterpretScore(pr.Scores.Overall))
			}
		}
	}

	writeList(&b, "Best Performing", ga.BestPerforming)
	writeList(&b, "Worst Performing", ga.WorstPerforming)
	writeList(&b, "Recurring Strengths", ga.RecurringStrengths)
	writeList(&b, "Recurring Weaknesses", ga.RecurringWeaknesses)
	writeList(&b, "Priority Recommendations", ga.PriorityRecommendations)

	b.WriteString("\n")
	b.WriteString(ga.Conclusion)
	b.WriteString("\n")

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "  - %s\n", it)
	}
}
