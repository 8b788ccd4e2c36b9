package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validCatalog = `{
  "personas": [
    {"id": "PERSONA_001", "nome": "Cliente Calmo", "nivel_stress": "baixo",
     "comportamentos": ["responde com calma"],
     "triggers_comportamento": {"inicio": "cumprimenta"}}
  ]
}`

func TestValidatePersonaCatalog(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.Empty(t, ValidatePersonaCatalog([]byte(validCatalog)))
	})

	t.Run("missing nome", func(t *testing.T) {
		errs := ValidatePersonaCatalog([]byte(`{"personas":[{"id":"P1"}]}`))
		require.NotEmpty(t, errs)
		require.Contains(t, errs[0], "/personas/0")
	})

	t.Run("missing personas", func(t *testing.T) {
		errs := ValidatePersonaCatalog([]byte(`{}`))
		require.NotEmpty(t, errs)
		require.Contains(t, strings.Join(errs, "\n"), "personas")
	})

	t.Run("not json", func(t *testing.T) {
		errs := ValidatePersonaCatalog([]byte(`{nope`))
		require.Len(t, errs, 1)
		require.Contains(t, errs[0], "JSON parse error")
	})
}

func TestValidateEvaluation(t *testing.T) {
	valid := map[string]any{
		"scores": map[string]any{
			"compliance": 90, "eficacia": 80, "eficiencia": 70,
			"qualidade_comunicacao": 85, "experiencia_usuario": 75, "score_geral": 80,
		},
		"resumo":       map[string]any{"resultado": "APROVADO", "pontos_fortes": []any{"cordial"}},
		"status_final": map[string]any{"aprovado": true},
	}
	require.Empty(t, ValidateEvaluation(valid))

	invalid := map[string]any{
		"scores":       map[string]any{"compliance": 190},
		"resumo":       map[string]any{"resultado": "TALVEZ"},
		"status_final": map[string]any{},
	}
	errs := ValidateEvaluation(invalid)
	require.NotEmpty(t, errs)
}

func TestValidateProjectConfig(t *testing.T) {
	require.Empty(t, ValidateProjectConfig([]byte(`
paths:
  catalog: personas.json
defaults:
  engine: mock
  max_turns: 12
  selection_mode: diversificado
`)))

	require.Empty(t, ValidateProjectConfig([]byte("")))

	errs := ValidateProjectConfig([]byte(`
defaults:
  engine: openai
  num_personas: 30
unknown: true
`))
	require.GreaterOrEqual(t, len(errs), 3)

	errs = ValidateProjectConfig([]byte("defaults: [unclosed"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "YAML parse error")
}
