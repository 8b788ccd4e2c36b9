package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTriggersPreserveOrder(t *testing.T) {
	raw := `{
		"id": "PERSONA_001",
		"nome": "Cliente Apressado",
		"triggers_comportamento": {
			"inicio": "pede preço logo",
			"meio": "reclama da demora",
			"fim": "agradece rápido"
		}
	}`

	var p Persona
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.Equal(t, Triggers{
		{Moment: "inicio", Behavior: "pede preço logo"},
		{Moment: "meio", Behavior: "reclama da demora"},
		{Moment: "fim", Behavior: "agradece rápido"},
	}, p.TriggerBehaviors)

	out, err := json.Marshal(p.TriggerBehaviors)
	require.NoError(t, err)
	require.Equal(t, `{"inicio":"pede preço logo","meio":"reclama da demora","fim":"agradece rápido"}`, string(out))
}

func TestTriggersRejectNonObject(t *testing.T) {
	var tr Triggers
	require.Error(t, json.Unmarshal([]byte(`["a","b"]`), &tr))
}

func TestTriggersNonStringValue(t *testing.T) {
	var tr Triggers
	require.NoError(t, json.Unmarshal([]byte(`{"n": 3, "null": null}`), &tr))
	require.Equal(t, Triggers{{Moment: "n", Behavior: "3"}, {Moment: "null", Behavior: ""}}, tr)
}

func TestTriggersRepeatedKey(t *testing.T) {
	var tr Triggers
	require.NoError(t, json.Unmarshal([]byte(`{
		"inicio": "cumprimenta",
		"meio": "pergunta o prazo",
		"inicio": "pede desconto"
	}`), &tr))
	require.Equal(t, Triggers{
		{Moment: "inicio", Behavior: "pede desconto"},
		{Moment: "meio", Behavior: "pergunta o prazo"},
	}, tr)
}

func TestFinish(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &TestResult{
		StartTime: start,
		Conversation: []ConversationMessage{
			{Turn: 1, Role: RoleUser, Content: "oi"},
			{Turn: 2, Role: RoleAssistant, Content: "olá"},
		},
	}

	r.Finish(start.Add(1234567 * time.Microsecond))
	require.Equal(t, 2, r.TotalTurns)
	require.Equal(t, 1.23, r.DurationSeconds)

	r.Finish(start.Add(-time.Second))
	require.Equal(t, 0.0, r.DurationSeconds)
}

func TestCellResultJSON(t *testing.T) {
	cells := []CellResult{
		{Result: &TestResult{TestID: "TEST_AAAAAAAA", PersonaID: "P1", Conversation: []ConversationMessage{}}},
		{Error: &ErrorRecord{TestID: "ERRO_BBBBBBBB", PersonaID: "P2", Error: "boom"}},
	}

	data, err := json.Marshal(cells)
	require.NoError(t, err)

	var generic []map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	require.Len(t, generic, 2)
	require.NotContains(t, generic[0], "erro")
	require.Equal(t, "boom", generic[1]["erro"])

	var back []CellResult
	require.NoError(t, json.Unmarshal(data, &back))
	require.False(t, back[0].IsError())
	require.True(t, back[1].IsError())
	require.Equal(t, "P2", back[1].PersonaID())
	require.Equal(t, "TEST_AAAAAAAA", back[0].TestID())
}

func TestCustomerDataFields(t *testing.T) {
	var nilData *CustomerData
	require.Nil(t, nilData.Fields())

	c := &CustomerData{Name: "Ana Costa", Phone: "(11)91234-5678"}
	require.Equal(t, []Field{{"nome", "Ana Costa"}, {"telefone", "(11)91234-5678"}}, c.Fields())

	c.Email = "ana@example.com"
	require.Len(t, c.Fields(), 3)
}
