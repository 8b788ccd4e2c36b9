package projectconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
)

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	// Paths
	assertEqual(t, "Paths.Catalog", "personas.json", cfg.Paths.Catalog)
	assertEqual(t, "Paths.Scripts", "scripts/", cfg.Paths.Scripts)
	assertEqual(t, "Paths.Results", "results/", cfg.Paths.Results)

	// Defaults
	assertEqual(t, "Defaults.Engine", "copilot-sdk", cfg.Defaults.Engine)
	assertEqual(t, "Defaults.SubjectModel", "claude-sonnet-4.6", cfg.Defaults.SubjectModel)
	assertEqual(t, "Defaults.TesterModel", "claude-sonnet-4.6", cfg.Defaults.TesterModel)
	assertEqual(t, "Defaults.JudgeModel", "claude-sonnet-4.6", cfg.Defaults.JudgeModel)
	assertEqual(t, "Defaults.SelectionMode", "random", cfg.Defaults.SelectionMode)
	assertEqualInt(t, "Defaults.MaxTurns", 20, cfg.Defaults.MaxTurns)
	assertEqualInt(t, "Defaults.NumPersonas", 5, cfg.Defaults.NumPersonas)
	assertEqualInt(t, "Defaults.Workers", 1, cfg.Defaults.Workers)
	assertEqualInt(t, "Defaults.Timeout", 300, cfg.Defaults.Timeout)
	assertEqualInt(t, "Defaults.Retries", 3, *cfg.Defaults.Retries)

	assertEqual(t, "Subject.Description", "Atendente virtual", cfg.Subject.Description)
	assertBoolPtr(t, "Output.Gzip", false, cfg.Output.Gzip)
	assertEqual(t, "Storage.Container", "personaqa", cfg.Storage.Container)
	assertEqual(t, "Dir", "", cfg.Dir)
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
paths:
  catalog: "data/personas.json"
  scripts: "prompts/"
  results: "out/"
defaults:
  engine: mock
  subject_model: gpt-4o
  tester_model: gpt-4o-mini
  judge_model: claude-sonnet-4.6
  max_turns: 12
  num_personas: 8
  selection_mode: diversificado
  workers: 4
  timeout: 600
  retries: 0
subject:
  description: "Atendente da Limpeza Total"
  instructions_file: agent.md
judge:
  instructions_file: judge.md
  rules_file: rules.md
output:
  transcripts: transcripts/
  gzip: true
  junit: junit.xml
  xlsx: session.xlsx
storage:
  account_url: https://acct.blob.core.windows.net
  container: reports
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Paths.Catalog", "data/personas.json", cfg.Paths.Catalog)
	assertEqual(t, "Paths.Scripts", "prompts/", cfg.Paths.Scripts)
	assertEqual(t, "Paths.Results", "out/", cfg.Paths.Results)

	assertEqual(t, "Defaults.Engine", "mock", cfg.Defaults.Engine)
	assertEqual(t, "Defaults.SubjectModel", "gpt-4o", cfg.Defaults.SubjectModel)
	assertEqual(t, "Defaults.TesterModel", "gpt-4o-mini", cfg.Defaults.TesterModel)
	assertEqual(t, "Defaults.SelectionMode", "diversificado", cfg.Defaults.SelectionMode)
	assertEqualInt(t, "Defaults.MaxTurns", 12, cfg.Defaults.MaxTurns)
	assertEqualInt(t, "Defaults.NumPersonas", 8, cfg.Defaults.NumPersonas)
	assertEqualInt(t, "Defaults.Workers", 4, cfg.Defaults.Workers)
	assertEqualInt(t, "Defaults.Timeout", 600, cfg.Defaults.Timeout)
	assertEqualInt(t, "Defaults.Retries", 0, *cfg.Defaults.Retries)

	assertEqual(t, "Subject.Description", "Atendente da Limpeza Total", cfg.Subject.Description)
	assertEqual(t, "Subject.InstructionsFile", "agent.md", cfg.Subject.InstructionsFile)
	assertEqual(t, "Judge.InstructionsFile", "judge.md", cfg.Judge.InstructionsFile)
	assertEqual(t, "Judge.RulesFile", "rules.md", cfg.Judge.RulesFile)

	assertEqual(t, "Output.Transcripts", "transcripts/", cfg.Output.Transcripts)
	assertBoolPtr(t, "Output.Gzip", true, cfg.Output.Gzip)
	assertEqual(t, "Output.JUnit", "junit.xml", cfg.Output.JUnit)
	assertEqual(t, "Output.XLSX", "session.xlsx", cfg.Output.XLSX)

	assertEqual(t, "Storage.AccountURL", "https://acct.blob.core.windows.net", cfg.Storage.AccountURL)
	assertEqual(t, "Storage.Container", "reports", cfg.Storage.Container)

	assertEqual(t, "Resolve(rules.md)", filepath.Join(dir, "rules.md"), cfg.Resolve(cfg.Judge.RulesFile))
	assertEqual(t, "Resolve(abs)", "/etc/rules.md", cfg.Resolve("/etc/rules.md"))
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
defaults:
  judge_model: gpt-4o
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Defaults.JudgeModel", "gpt-4o", cfg.Defaults.JudgeModel)
	assertEqual(t, "Defaults.Engine", "copilot-sdk", cfg.Defaults.Engine)
	assertEqualInt(t, "Defaults.MaxTurns", 20, cfg.Defaults.MaxTurns)
	assertEqualInt(t, "Defaults.Retries", 3, *cfg.Defaults.Retries)
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Should be identical to New()
	defaults := New()
	assertEqual(t, "Defaults.Engine", defaults.Defaults.Engine, cfg.Defaults.Engine)
	assertEqual(t, "Defaults.SubjectModel", defaults.Defaults.SubjectModel, cfg.Defaults.SubjectModel)
	assertEqualInt(t, "Defaults.Timeout", defaults.Defaults.Timeout, cfg.Defaults.Timeout)
	assertEqual(t, "Resolve(rules.md)", "rules.md", cfg.Resolve("rules.md"))
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
defaults:
  engine: [not valid yaml
    this is broken
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() should return error for invalid YAML")
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
defaults:
  engine: openai
  num_personas: 50
colors: true
`)

	_, err := Load(dir)
	var ve *qaerrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Load() error = %v, want ValidationError", err)
	}
	if ve.Field != filepath.Join(dir, FileName) {
		t.Errorf("Field = %q, want the config path", ve.Field)
	}
	for _, want := range []string{"engine", "num_personas", "colors"} {
		if !strings.Contains(ve.Message, want) {
			t.Errorf("message %q should mention %s", ve.Message, want)
		}
	}
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, `
defaults:
  engine: mock
`)

	child := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(child)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Defaults.Engine", "mock", cfg.Defaults.Engine)
	assertEqual(t, "Dir", root, cfg.Dir)
	// Other defaults still populated
	assertEqual(t, "Defaults.SubjectModel", "claude-sonnet-4.6", cfg.Defaults.SubjectModel)
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	env := map[string]string{
		EnvEngine:     "mock",
		EnvModel:      "gpt-4o",
		EnvAccountURL: "https://env.blob.core.windows.net",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assertEqual(t, "Defaults.Engine", "mock", cfg.Defaults.Engine)
	assertEqual(t, "Defaults.SubjectModel", "gpt-4o", cfg.Defaults.SubjectModel)
	assertEqual(t, "Defaults.TesterModel", "gpt-4o", cfg.Defaults.TesterModel)
	assertEqual(t, "Defaults.JudgeModel", "gpt-4o", cfg.Defaults.JudgeModel)
	assertEqual(t, "Storage.AccountURL", "https://env.blob.core.windows.net", cfg.Storage.AccountURL)

	untouched := New()
	untouched.ApplyEnv(func(string) string { return "" })
	assertEqual(t, "Defaults.Engine", "copilot-sdk", untouched.Defaults.Engine)
}

func TestGzipPointer(t *testing.T) {
	t.Run("default preserved when not set in YAML", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, `
output:
  junit: junit.xml
`)
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		assertBoolPtr(t, "Output.Gzip", false, cfg.Output.Gzip)
	})

	t.Run("explicitly true", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, `
output:
  gzip: true
`)
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		assertBoolPtr(t, "Output.Gzip", true, cfg.Output.Gzip)
	})
}

// --- test helpers ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func assertEqualInt(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", field, got, want)
	}
}

func assertBoolPtr(t *testing.T, field string, want bool, got *bool) {
	t.Helper()
	if got == nil {
		t.Errorf("%s is nil, want *%v", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", field, *got, want)
	}
}
