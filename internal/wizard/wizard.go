// Package wizard holds the interactive forms of the CLI.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/persona"
	"golang.org/x/term"
)

// PickPersonas runs an interactive huh form to choose personas from the
// catalog listing. The chosen ids are returned in catalog order.
func PickPersonas(in io.Reader, out io.Writer, personas []models.PersonaSummary) ([]string, error) {
	if len(personas) == 0 {
		return nil, fmt.Errorf("the persona catalog is empty")
	}

	options := make([]huh.Option[string], 0, len(personas))
	for _, p := range personas {
		options = append(options, huh.NewOption(OptionLabel(p), p.ID))
	}

	var chosen []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Personas").
				Description(fmt.Sprintf("Choose up to %d personas for the test battery", persona.MaxPersonas)).
				Options(options...).
				Limit(persona.MaxPersonas).
				Value(&chosen).
				Validate(validateSelection),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("persona picker failed: %w", err)
	}

	return inCatalogOrder(personas, chosen), nil
}

// OptionLabel is how a persona is shown in the picker, ex:
// "Ana (PERSONA_001) - calma, stress baixo".
func OptionLabel(p models.PersonaSummary) string {
	var traits []string
	if p.Personality != "" {
		traits = append(traits, p.Personality)
	}
	if p.StressLevel != "" {
		traits = append(traits, "stress "+p.StressLevel)
	}

	label := fmt.Sprintf("%s (%s)", p.Name, p.ID)
	if len(traits) > 0 {
		label += " - " + strings.Join(traits, ", ")
	}
	return label
}

func validateSelection(ids []string) error {
	switch {
	case len(ids) == 0:
		return fmt.Errorf("choose at least one persona")
	case len(ids) > persona.MaxPersonas:
		return fmt.Errorf("choose at most %d personas", persona.MaxPersonas)
	}
	return nil
}

func inCatalogOrder(personas []models.PersonaSummary, chosen []string) []string {
	picked := make(map[string]bool, len(chosen))
	for _, id := range chosen {
		picked[id] = true
	}

	ids := make([]string, 0, len(chosen))
	for _, p := range personas {
		if picked[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
