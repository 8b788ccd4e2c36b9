package persona

import (
	"strings"
	"testing"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/stretchr/testify/require"
)

func testPersona() *models.Persona {
	return &models.Persona{
		ID:                "PERSONA_010",
		Name:              "Cliente Desconfiado",
		Personality:       "cético",
		StressLevel:       "alto",
		CommunicationTone: "seco",
		Behaviors:         []string{"questiona preços", "pede garantias"},
		LanguagePatterns:  []string{"será mesmo?", `isso é "promoção"?`},
		TriggerBehaviors: models.Triggers{
			{Moment: "inicio", Behavior: "desconfia"},
			{Moment: "fechamento", Behavior: "pede desconto"},
		},
	}
}

func TestComposeFullLayout(t *testing.T) {
	data := &models.CustomerData{Name: "Ana Costa", Phone: "(11)91234-5678", Email: "ana.costa@gmail.com"}

	got, err := Compose("\n  # Teste 1\nFaça X  \n\n", testPersona(), data)
	require.NoError(t, err)

	want := strings.Join([]string{
		"# SUA PERSONA: Cliente Desconfiado",
		"",
		"**Personalidade:** cético",
		"**Nível de Stress:** alto",
		"**Tom de Comunicação:** seco",
		"",
		"## Como você se comporta:",
		"- questiona preços",
		"- pede garantias",
		"",
		"## Padrões típicos de linguagem:",
		`- "será mesmo?"`,
		`- "isso é "promoção"?"`,
		"",
		"## Comportamentos ao longo da conversa:",
		"- **inicio:** desconfia",
		"- **fechamento:** pede desconto",
		"",
		"---\n",
		"# Teste 1\nFaça X",
		"\n---\n",
		"## SEUS DADOS PARA ESTE TESTE",
		"",
		"- **Nome:** Ana Costa",
		"- **Telefone:** (11)91234-5678",
		"- **Email:** ana.costa@gmail.com",
		"",
		"## INSTRUÇÕES FINAIS",
		"",
		"Você deve:",
		`1. Usar a PERSONA "Cliente Desconfiado" durante toda a conversa`,
		"2. Seguir as instruções do PROMPT DE TESTE acima",
		"3. Ser natural - combine a persona com as instruções",
		"4. Manter o tom e padrões de linguagem da sua persona",
		"",
		"**COMECE AGORA!**",
	}, "\n")

	require.Equal(t, want, got)
}

func TestComposeOmitsEmptySections(t *testing.T) {
	p := &models.Persona{ID: "P", Name: "Mínima"}

	got, err := Compose("roteiro", p, nil)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(got, "# SUA PERSONA: Mínima\n\n**Personalidade:** N/A\n**Nível de Stress:** N/A\n**Tom de Comunicação:** N/A\n\n---\n\nroteiro\n\n---\n\n## INSTRUÇÕES FINAIS"))
	require.NotContains(t, got, "## Como você se comporta:")
	require.NotContains(t, got, "## Padrões típicos de linguagem:")
	require.NotContains(t, got, "## Comportamentos ao longo da conversa:")
	require.NotContains(t, got, "SEUS DADOS")
}

func TestComposeIsDeterministic(t *testing.T) {
	a, err := Compose("x", testPersona(), nil)
	require.NoError(t, err)
	b, err := Compose("x", testPersona(), nil)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestComposeRejectsEmptyScript(t *testing.T) {
	for _, script := range []string{"", "   ", "\n\t\n"} {
		_, err := Compose(script, testPersona(), nil)
		var verr *qaerrors.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "test_script", verr.Field)
	}
}

func TestComposeForUnknownPersona(t *testing.T) {
	c := loadCatalog(t, 2)

	_, err := c.ComposeFor("roteiro", "PERSONA_404", nil)

	var verr *qaerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "persona_id", verr.Field)

	var nf *qaerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestComposeForRoundTrip(t *testing.T) {
	c := loadCatalog(t, 3)

	for _, id := range c.IDs() {
		prompt, err := c.ComposeFor("roteiro", id, nil)
		require.NoError(t, err)

		p, err := c.Get(id)
		require.NoError(t, err)
		require.Contains(t, prompt, "# SUA PERSONA: "+p.Name+"\n")
		require.Contains(t, prompt, `Usar a PERSONA "`+p.Name+`"`)
	}
}
