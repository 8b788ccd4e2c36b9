package persona

import (
	"fmt"
	"strings"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const notAvailable = "N/A"

const closingInstructions = `## INSTRUÇÕES FINAIS

Você deve:
1. Usar a PERSONA "%s" durante toda a conversa
2. Seguir as instruções do PROMPT DE TESTE acima
3. Ser natural - combine a persona com as instruções
4. Manter o tom e padrões de linguagem da sua persona

**COMECE AGORA!**`

// Compose merges a persona, a test script and optional customer data into the
// tester instructions. The output is deterministic for identical inputs.
func Compose(script string, p *models.Persona, data *models.CustomerData) (string, error) {
	trimmed := strings.TrimSpace(script)
	if trimmed == "" {
		return "", &qaerrors.ValidationError{Field: "test_script", Message: "test script must not be empty"}
	}
	if p == nil {
		return "", &qaerrors.ValidationError{Field: "persona", Message: "persona is required"}
	}

	parts := []string{
		formatPersona(p),
		"---\n",
		trimmed,
		"\n---\n",
	}
	if block := formatCustomerData(data); block != "" {
		parts = append(parts, block)
	}
	parts = append(parts, fmt.Sprintf(closingInstructions, p.Name))

	return strings.Join(parts, "\n"), nil
}

// ComposeFor looks up personaID and composes its tester instructions. An
// unknown id is reported as a ValidationError wrapping the NotFoundError.
func (c *Catalog) ComposeFor(script, personaID string, data *models.CustomerData) (string, error) {
	if strings.TrimSpace(script) == "" {
		return "", &qaerrors.ValidationError{Field: "test_script", Message: "test script must not be empty"}
	}
	p, err := c.Get(personaID)
	if err != nil {
		return "", &qaerrors.ValidationError{
			Field:   "persona_id",
			Message: fmt.Sprintf("unknown persona %q", personaID),
			Cause:   err,
		}
	}
	return Compose(script, p, data)
}

func formatPersona(p *models.Persona) string {
	lines := []string{
		"# SUA PERSONA: " + p.Name,
		"",
		"**Personalidade:** " + orNA(p.Personality),
		"**Nível de Stress:** " + orNA(p.StressLevel),
		"**Tom de Comunicação:** " + orNA(p.CommunicationTone),
		"",
	}

	if len(p.Behaviors) > 0 {
		lines = append(lines, "## Como você se comporta:")
		for _, b := range p.Behaviors {
			lines = append(lines, "- "+b)
		}
		lines = append(lines, "")
	}

	if len(p.LanguagePatterns) > 0 {
		lines = append(lines, "## Padrões típicos de linguagem:")
		for _, lp := range p.LanguagePatterns {
			lines = append(lines, `- "`+lp+`"`)
		}
		lines = append(lines, "")
	}

	if len(p.TriggerBehaviors) > 0 {
		lines = append(lines, "## Comportamentos ao longo da conversa:")
		for _, tr := range p.TriggerBehaviors {
			lines = append(lines, fmt.Sprintf("- **%s:** %s", tr.Moment, tr.Behavior))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func formatCustomerData(data *models.CustomerData) string {
	fields := data.Fields()
	if len(fields) == 0 {
		return ""
	}

	// Casers are stateful, so each call gets its own.
	title := cases.Title(language.BrazilianPortuguese)

	lines := []string{"## SEUS DADOS PARA ESTE TESTE", ""}
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("- **%s:** %s", title.String(f.Key), f.Value))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
