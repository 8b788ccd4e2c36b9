package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCatalog = `{"personas": [
	{"id": "PERSONA_001", "nome": "Ana", "personalidade": "calma", "nivel_stress": "baixo",
	 "comportamentos": ["pergunta o preço logo"], "triggers_comportamento": {"inicio": "cumprimenta"}},
	{"id": "PERSONA_002", "nome": "Bruno", "personalidade": "impaciente", "nivel_stress": "alto"},
	{"id": "PERSONA_003", "nome": "Conceição", "personalidade": "desconfiada", "nivel_stress": "medio"}
]}`

const testProject = `paths:
  catalog: personas.json
defaults:
  engine: mock
  max_turns: 6
  selection_mode: sequential
`

// setupProject writes a project with a catalog, a project file and two test
// scripts, and returns its directory.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"personas.json":            testCatalog,
		".personaqa.yaml":          testProject,
		"scripts/sofa.md":          "# Higienização de sofá\n\nPeça um orçamento para um sofá de 3 lugares.",
		"scripts/nested/tapete.md": "# Tapete\n\nPergunte o prazo de entrega.",
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// runCLI executes the root command in dir and returns what it printed.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	return runCLIWithEnv(t, dir, nil, args...)
}

func runCLIWithEnv(t *testing.T, dir string, env map[string]string, args ...string) (string, error) {
	t.Helper()

	a := &app{
		workDir: dir,
		getenv:  func(k string) string { return env[k] },
	}
	cmd := newRootCommandFor(a)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
