// Package analysis asks the judge agent to evaluate each conversation and
// consolidates the evaluations of a session into one report.
package analysis

import (
	"fmt"
	"strings"

	"github.com/qamaster/personaqa/internal/models"
)

// FormatRequest builds the judge prompt for one conversation: the subject's
// declared rules, the test scenario and the full transcript.
func FormatRequest(rules string, r *models.TestResult) string {
	lines := make([]string, 0, len(r.Conversation))
	for _, msg := range r.Conversation {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(msg.Role)), msg.Content))
	}

	var sb strings.Builder
	sb.WriteString("\n## REGRAS DO AGENTE\n")
	sb.WriteString(rules)
	sb.WriteString("\n\n## CENÁRIO DO TESTE\n")
	fmt.Fprintf(&sb, "Teste com persona: %s (%s)\n", r.PersonaName, r.PersonaID)
	fmt.Fprintf(&sb, "Prompt: %s\n", r.TestScriptName)
	fmt.Fprintf(&sb, "Total de turnos: %d\n", r.TotalTurns)
	sb.WriteString("\n## CONVERSA COMPLETA\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\nAnalise esta conversa e forneça a avaliação no formato JSON especificado.\n")
	return sb.String()
}
