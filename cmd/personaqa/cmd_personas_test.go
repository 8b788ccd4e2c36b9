package main

import (
	"encoding/json"
	"strings"
	"testing"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonasList(t *testing.T) {
	stdout, err := runCLI(t, setupProject(t), "personas", "list")
	require.NoError(t, err)

	assert.Contains(t, stdout, "PERSONALIDADE")
	assert.Contains(t, stdout, "Conceição")
	assert.Contains(t, stdout, "3 persona(s)")
}

func TestPersonasListJSON(t *testing.T) {
	stdout, err := runCLI(t, setupProject(t), "personas", "list", "--json")
	require.NoError(t, err)

	var personas []models.PersonaSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &personas))
	require.Len(t, personas, 3)
	assert.Equal(t, models.PersonaSummary{ID: "PERSONA_002", Name: "Bruno", Personality: "impaciente", StressLevel: "alto"}, personas[1])
}

func TestPersonasListMissingCatalog(t *testing.T) {
	dir := setupProject(t)
	_, err := runCLI(t, dir, "personas", "list", "--catalog", "nope.json")

	var nf *qaerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestPersonasSelect(t *testing.T) {
	dir := setupProject(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"sequential from project", []string{"2"}, []string{"PERSONA_001", "PERSONA_002"}},
		{"more than the catalog", []string{"5", "--mode", "sequential"}, []string{"PERSONA_001", "PERSONA_002", "PERSONA_003"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, err := runCLI(t, dir, append([]string{"personas", "select"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.Fields(stdout))
		})
	}
}

func TestPersonasSelectRandomIsSeeded(t *testing.T) {
	dir := setupProject(t)

	first, err := runCLI(t, dir, "personas", "select", "2", "--mode", "random", "--seed", "11")
	require.NoError(t, err)
	second, err := runCLI(t, dir, "personas", "select", "2", "--mode", "random", "--seed", "11")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, strings.Fields(first), 2)
}

func TestPersonasSelectErrors(t *testing.T) {
	dir := setupProject(t)

	_, err := runCLI(t, dir, "personas", "select", "0")
	var re *qaerrors.RangeError
	require.ErrorAs(t, err, &re)

	_, err = runCLI(t, dir, "personas", "select", "dois")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid count")

	_, err = runCLI(t, dir, "personas", "select", "2", "--mode", "alfabetico")
	var ve *qaerrors.ValidationError
	require.ErrorAs(t, err, &ve)
}
