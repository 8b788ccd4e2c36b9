// Package projectconfig provides the ProjectConfig struct and loader for
// .personaqa.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/validation"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".personaqa.yaml"

// maxWalkUp bounds how many parent directories Load inspects.
const maxWalkUp = 10

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultCatalogPath = "personas.json"
	DefaultScriptsDir  = "scripts/"
	DefaultResultsDir  = "results/"

	DefaultEngine        = "copilot-sdk"
	DefaultModel         = "claude-sonnet-4.6"
	DefaultMaxTurns      = 20
	DefaultNumPersonas   = 5
	DefaultSelectionMode = "random"
	DefaultWorkers       = 1
	DefaultTimeout       = 300
	DefaultRetries       = 3

	DefaultSubjectDescription = "Atendente virtual"
	DefaultContainer          = "personaqa"
)

// Environment variables that take precedence over the file.
const (
	EnvEngine     = "PERSONAQA_ENGINE"
	EnvModel      = "PERSONAQA_MODEL"
	EnvAccountURL = "PERSONAQA_STORAGE_ACCOUNT_URL"
)

// PathsConfig holds the persona catalog, test scripts and results locations.
type PathsConfig struct {
	Catalog string `yaml:"catalog,omitempty"`
	Scripts string `yaml:"scripts,omitempty"`
	Results string `yaml:"results,omitempty"`
}

// DefaultsConfig holds default execution parameters.
type DefaultsConfig struct {
	Engine        string `yaml:"engine,omitempty"`
	SubjectModel  string `yaml:"subject_model,omitempty"`
	TesterModel   string `yaml:"tester_model,omitempty"`
	JudgeModel    string `yaml:"judge_model,omitempty"`
	MaxTurns      int    `yaml:"max_turns,omitempty"`
	NumPersonas   int    `yaml:"num_personas,omitempty"`
	SelectionMode string `yaml:"selection_mode,omitempty"`
	Workers       int    `yaml:"workers,omitempty"`
	Timeout       int    `yaml:"timeout,omitempty"`
	Retries       *int   `yaml:"retries,omitempty"`
}

// SubjectConfig describes the agent under test.
type SubjectConfig struct {
	Description      string `yaml:"description,omitempty"`
	InstructionsFile string `yaml:"instructions_file,omitempty"`
}

// JudgeConfig points at the judge instructions and the subject's rules.
type JudgeConfig struct {
	InstructionsFile string `yaml:"instructions_file,omitempty"`
	RulesFile        string `yaml:"rules_file,omitempty"`
}

// OutputConfig holds report destinations.
type OutputConfig struct {
	Transcripts string `yaml:"transcripts,omitempty"`
	Gzip        *bool  `yaml:"gzip,omitempty"`
	JUnit       string `yaml:"junit,omitempty"`
	XLSX        string `yaml:"xlsx,omitempty"`
}

// StorageConfig holds the Azure blob destination for session reports.
type StorageConfig struct {
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .personaqa.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
	Subject  SubjectConfig  `yaml:"subject,omitempty"`
	Judge    JudgeConfig    `yaml:"judge,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Storage  StorageConfig  `yaml:"storage,omitempty"`

	// Dir is the directory the file was found in, empty when defaults are used.
	Dir string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Catalog: DefaultCatalogPath,
			Scripts: DefaultScriptsDir,
			Results: DefaultResultsDir,
		},
		Defaults: DefaultsConfig{
			Engine:        DefaultEngine,
			SubjectModel:  DefaultModel,
			TesterModel:   DefaultModel,
			JudgeModel:    DefaultModel,
			MaxTurns:      DefaultMaxTurns,
			NumPersonas:   DefaultNumPersonas,
			SelectionMode: DefaultSelectionMode,
			Workers:       DefaultWorkers,
			Timeout:       DefaultTimeout,
			Retries:       intPtr(DefaultRetries),
		},
		Subject: SubjectConfig{
			Description: DefaultSubjectDescription,
		},
		Output: OutputConfig{
			Gzip: boolPtr(false),
		},
		Storage: StorageConfig{
			Container: DefaultContainer,
		},
	}
}

// Load finds .personaqa.yaml by walking up from startDir (max 10 levels),
// validates it against the embedded schema, unmarshals it, and fills in
// missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	if issues := validation.ValidateProjectConfig(data); len(issues) > 0 {
		return nil, &qaerrors.ValidationError{
			Field:   path,
			Message: "invalid project configuration:\n  " + strings.Join(issues, "\n  "),
		}
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	mergeConfig(cfg, &fileCfg)
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// ApplyEnv overlays the PERSONAQA_* environment variables read through getenv.
func (c *ProjectConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvEngine); v != "" {
		c.Defaults.Engine = v
	}
	if v := getenv(EnvModel); v != "" {
		c.Defaults.SubjectModel = v
		c.Defaults.TesterModel = v
		c.Defaults.JudgeModel = v
	}
	if v := getenv(EnvAccountURL); v != "" {
		c.Storage.AccountURL = v
	}
}

// Resolve makes a relative path from the file relative to the directory the
// file was found in.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// findConfigFile walks up from dir looking for .personaqa.yaml.
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) (string, []byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range maxWalkUp {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	setString(&dst.Paths.Catalog, src.Paths.Catalog)
	setString(&dst.Paths.Scripts, src.Paths.Scripts)
	setString(&dst.Paths.Results, src.Paths.Results)

	// Defaults
	d, s := &dst.Defaults, &src.Defaults
	setString(&d.Engine, s.Engine)
	setString(&d.SubjectModel, s.SubjectModel)
	setString(&d.TesterModel, s.TesterModel)
	setString(&d.JudgeModel, s.JudgeModel)
	setString(&d.SelectionMode, s.SelectionMode)
	setInt(&d.MaxTurns, s.MaxTurns)
	setInt(&d.NumPersonas, s.NumPersonas)
	setInt(&d.Workers, s.Workers)
	setInt(&d.Timeout, s.Timeout)
	if s.Retries != nil {
		d.Retries = s.Retries
	}

	setString(&dst.Subject.Description, src.Subject.Description)
	setString(&dst.Subject.InstructionsFile, src.Subject.InstructionsFile)
	setString(&dst.Judge.InstructionsFile, src.Judge.InstructionsFile)
	setString(&dst.Judge.RulesFile, src.Judge.RulesFile)

	// Output
	setString(&dst.Output.Transcripts, src.Output.Transcripts)
	setString(&dst.Output.JUnit, src.Output.JUnit)
	setString(&dst.Output.XLSX, src.Output.XLSX)
	if src.Output.Gzip != nil {
		dst.Output.Gzip = src.Output.Gzip
	}

	setString(&dst.Storage.AccountURL, src.Storage.AccountURL)
	setString(&dst.Storage.Container, src.Storage.Container)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *int {
	return &i
}
