package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/projectconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Argument validation
// ---------------------------------------------------------------------------

func TestRunCommand_NoArgs(t *testing.T) {
	_, err := runCLI(t, setupProject(t), "run")
	require.Error(t, err)
}

func TestRunCommand_Validation(t *testing.T) {
	dir := setupProject(t)
	script := filepath.Join(dir, "scripts", "sofa.md")

	tests := []struct {
		name    string
		args    []string
		field   string
		message string
	}{
		{"unknown engine", []string{"--engine", "gpt-local"}, "engine", ""},
		{"unknown mode", []string{"--mode", "alfabetico"}, "mode", ""},
		{"upload without account", []string{"--upload"}, "storage.account_url", ""},
		{"gate out of range", []string{"--min-approval", "150"}, "min-approval", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, dir, append([]string{"run", script}, tt.args...)...)

			var ve *qaerrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, ExitError, exitCode(err))
		})
	}
}

func TestRunCommand_UnknownFormat(t *testing.T) {
	dir := setupProject(t)
	_, err := runCLI(t, dir, "run", filepath.Join(dir, "scripts", "sofa.md"), "--format", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRunCommand_MissingScript(t *testing.T) {
	dir := setupProject(t)
	_, err := runCLI(t, dir, "run", filepath.Join(dir, "scripts", "missing.md"))

	var nf *qaerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
}

// ---------------------------------------------------------------------------
// Sessions with the mock engine
// ---------------------------------------------------------------------------

func TestRunCommand_MockSessionWritesEveryReport(t *testing.T) {
	dir := setupProject(t)
	out := filepath.Join(dir, "results")

	stdout, err := runCLI(t, dir, "run", filepath.Join(dir, "scripts", "sofa.md"),
		"--persona-ids", "PERSONA_001,PERSONA_002",
		"--seed", "7",
		"--output", filepath.Join(out, "session.json"),
		"--transcripts", filepath.Join(out, "transcripts"),
		"--junit", filepath.Join(out, "junit.xml"),
		"--xlsx", filepath.Join(out, "session.xlsx"),
		"--min-approval", "80",
		"--interpret",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Engine: mock")
	assert.Contains(t, stdout, "SESSION RESULTS")
	assert.Contains(t, stdout, "100.0%")
	assert.Contains(t, stdout, "Ana (PERSONA_001)")
	assert.Contains(t, stdout, "=== Interpretation ===")
	assert.Contains(t, stdout, "Results saved to:")

	data, err := os.ReadFile(filepath.Join(out, "session.json"))
	require.NoError(t, err)

	var session models.ConsolidatedSession
	require.NoError(t, json.Unmarshal(data, &session))
	assert.Equal(t, 2, session.NumPersonas)
	assert.Equal(t, "sofa.md", session.TestScriptName)
	require.Len(t, session.PersonaResults, 2)
	assert.Equal(t, "PERSONA_001", session.PersonaResults[0].PersonaID)
	assert.Equal(t, 2, session.Analysis.Approved)
	assert.Equal(t, 100.0, session.Analysis.ApprovalRate)
	assert.Equal(t, 83, session.Analysis.MeanOverallScore)

	for _, name := range []string{"junit.xml", "session.xlsx"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}

	transcripts, err := filepath.Glob(filepath.Join(out, "transcripts", "*.json"))
	require.NoError(t, err)
	// one per conversation plus the consolidated session
	assert.Len(t, transcripts, 3)
}

func TestRunCommand_FailedCellDoesNotCountTowardsApproval(t *testing.T) {
	dir := setupProject(t)

	stdout, err := runCLI(t, dir, "run", filepath.Join(dir, "scripts", "sofa.md"),
		"--persona-ids", "PERSONA_001,PERSONA_404",
		"--min-approval", "100",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "PERSONA_404")
	assert.Contains(t, stdout, "ERRO")
	assert.Contains(t, stdout, "100.0%")
}

func TestRunCommand_GitHubCommentFormat(t *testing.T) {
	dir := setupProject(t)

	stdout, err := runCLI(t, dir, "run", filepath.Join(dir, "scripts", "sofa.md"),
		"--personas", "1", "--format", "github-comment")
	require.NoError(t, err)

	assert.Contains(t, stdout, "## 🧪 Persona Test Results")
	assert.Contains(t, stdout, "| Ana (PERSONA_001) | 83 | ✅ |")
}

func TestRunCommand_EngineFromEnvironment(t *testing.T) {
	dir := setupProject(t)

	_, err := runCLIWithEnv(t, dir, map[string]string{projectconfig.EnvEngine: "not-an-engine"},
		"run", filepath.Join(dir, "scripts", "sofa.md"), "--personas", "1")

	var ve *qaerrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "engine", ve.Field)
}

func TestApprovalGate(t *testing.T) {
	session := &models.ConsolidatedSession{SessionID: "SESSION_0000000A"}
	session.Analysis.ApprovalRate = 66.7

	tests := []struct {
		name    string
		min     float64
		wantErr bool
	}{
		{"disabled", 0, false},
		{"met", 60, false},
		{"exact", 66.7, false},
		{"missed", 70, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := approvalGate(session, tt.min)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var tf *TestFailureError
			require.ErrorAs(t, err, &tf)
			assert.Contains(t, tf.Message, "66.7%")
			assert.Contains(t, tf.Message, "70.0%")
		})
	}
}
