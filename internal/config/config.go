// Package config holds the immutable settings of one personaqa invocation,
// assembled from the project file and command-line flags.
package config

import "github.com/qamaster/personaqa/internal/persona"

// RunConfig is read-only once built. Use NewRunConfig with options.
type RunConfig struct {
	catalogPath   string
	maxTurns      int
	numPersonas   int
	personaIDs    []string
	mode          persona.Mode
	workers       int
	seed          int64
	transcriptDir string
	gzip          bool
	outputPath    string
	junitPath     string
	xlsxPath      string
	upload        bool
	minApproval   float64
	verbose       bool
}

// Option configures a RunConfig.
type Option func(*RunConfig)

// NewRunConfig builds a RunConfig. Options are applied in order, so the last
// one wins. A nil option panics.
func NewRunConfig(opts ...Option) *RunConfig {
	cfg := &RunConfig{
		maxTurns:    20,
		numPersonas: persona.DefaultCount,
		mode:        persona.ModeRandom,
		workers:     1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithCatalogPath(p string) Option {
	return func(c *RunConfig) { c.catalogPath = p }
}

func WithMaxTurns(n int) Option {
	return func(c *RunConfig) { c.maxTurns = n }
}

func WithNumPersonas(n int) Option {
	return func(c *RunConfig) { c.numPersonas = n }
}

// WithPersonaIDs sets an explicit persona list, which takes precedence over
// the count and the selection mode.
func WithPersonaIDs(ids []string) Option {
	return func(c *RunConfig) { c.personaIDs = append([]string(nil), ids...) }
}

func WithMode(m persona.Mode) Option {
	return func(c *RunConfig) { c.mode = m }
}

// WithWorkers sets how many conversations run at once. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(c *RunConfig) { c.workers = max(n, 1) }
}

// WithSeed fixes the randomness of persona selection and customer data. Zero
// means seed from the clock.
func WithSeed(seed int64) Option {
	return func(c *RunConfig) { c.seed = seed }
}

func WithTranscriptDir(dir string) Option {
	return func(c *RunConfig) { c.transcriptDir = dir }
}

func WithGzip(v bool) Option {
	return func(c *RunConfig) { c.gzip = v }
}

func WithOutputPath(p string) Option {
	return func(c *RunConfig) { c.outputPath = p }
}

func WithJUnitPath(p string) Option {
	return func(c *RunConfig) { c.junitPath = p }
}

func WithXLSXPath(p string) Option {
	return func(c *RunConfig) { c.xlsxPath = p }
}

func WithUpload(v bool) Option {
	return func(c *RunConfig) { c.upload = v }
}

// WithMinApproval sets the approval rate (0-100) below which a run fails.
func WithMinApproval(rate float64) Option {
	return func(c *RunConfig) { c.minApproval = rate }
}

func WithVerbose(v bool) Option {
	return func(c *RunConfig) { c.verbose = v }
}

func (c *RunConfig) CatalogPath() string   { return c.catalogPath }
func (c *RunConfig) MaxTurns() int         { return c.maxTurns }
func (c *RunConfig) NumPersonas() int      { return c.numPersonas }
func (c *RunConfig) Mode() persona.Mode    { return c.mode }
func (c *RunConfig) Workers() int          { return c.workers }
func (c *RunConfig) Seed() int64           { return c.seed }
func (c *RunConfig) TranscriptDir() string { return c.transcriptDir }
func (c *RunConfig) Gzip() bool            { return c.gzip }
func (c *RunConfig) OutputPath() string    { return c.outputPath }
func (c *RunConfig) JUnitPath() string     { return c.junitPath }
func (c *RunConfig) XLSXPath() string      { return c.xlsxPath }
func (c *RunConfig) Upload() bool          { return c.upload }
func (c *RunConfig) MinApproval() float64  { return c.minApproval }
func (c *RunConfig) Verbose() bool         { return c.verbose }

// PersonaIDs returns a copy of the explicit persona list.
func (c *RunConfig) PersonaIDs() []string {
	return append([]string(nil), c.personaIDs...)
}
