package main

import (
	"encoding/json"
	"math/rand"
	"os"
	"time"

	"github.com/qamaster/personaqa/internal/config"
	"github.com/qamaster/personaqa/internal/conversation"
	"github.com/qamaster/personaqa/internal/orchestration"
	"github.com/qamaster/personaqa/internal/persona"
	"github.com/qamaster/personaqa/internal/transcript"
	"github.com/spf13/cobra"
)

// batchFlags are shared by every command that runs conversations.
type batchFlags struct {
	engineFlags

	personas      int
	personaIDs    []string
	mode          string
	maxTurns      int
	workers       int
	seed          int64
	transcriptDir string
	gzip          bool
	outputPath    string
	junitPath     string
	verbose       bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	f.engineFlags.register(cmd)

	cmd.Flags().IntVarP(&f.personas, "personas", "n", 0, "Number of personas to select (1-20, default: defaults.num_personas)")
	cmd.Flags().StringSliceVar(&f.personaIDs, "persona-ids", nil, "Explicit persona ids, comma separated (overrides --personas and --mode)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Selection mode: random, sequential, diversified (default: defaults.selection_mode)")
	cmd.Flags().IntVar(&f.maxTurns, "max-turns", 0, "Maximum messages per conversation (default: defaults.max_turns)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Number of conversations run at once (default: defaults.workers)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed for persona selection and customer data (0 = random)")
	cmd.Flags().StringVar(&f.transcriptDir, "transcripts", "", "Directory to save per-conversation transcript JSON files")
	cmd.Flags().BoolVar(&f.gzip, "gzip", false, "Gzip transcripts")
	cmd.Flags().StringVarP(&f.outputPath, "output", "o", "", "Output JSON file for results")
	cmd.Flags().StringVar(&f.junitPath, "junit", "", "Write a JUnit XML report to this path")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Verbose output with per-cell details")
}

// runConfig merges the flags over the project configuration.
func (f *batchFlags) runConfig(cmd *cobra.Command, a *app, extra ...config.Option) (*config.RunConfig, error) {
	p := a.project

	mode, err := persona.ParseMode(firstNonEmpty(f.mode, p.Defaults.SelectionMode))
	if err != nil {
		return nil, err
	}

	gzip := f.gzip
	if !cmd.Flags().Changed("gzip") && p.Output.Gzip != nil {
		gzip = *p.Output.Gzip
	}

	opts := []config.Option{
		config.WithCatalogPath(firstNonEmpty(a.catalogPath, p.Resolve(p.Paths.Catalog))),
		config.WithNumPersonas(orDefault(f.personas, p.Defaults.NumPersonas)),
		config.WithPersonaIDs(f.personaIDs),
		config.WithMode(mode),
		config.WithMaxTurns(orDefault(f.maxTurns, p.Defaults.MaxTurns)),
		config.WithWorkers(orDefault(f.workers, p.Defaults.Workers)),
		config.WithSeed(f.seed),
		config.WithTranscriptDir(firstNonEmpty(f.transcriptDir, p.Resolve(p.Output.Transcripts))),
		config.WithGzip(gzip),
		config.WithOutputPath(f.outputPath),
		config.WithJUnitPath(firstNonEmpty(f.junitPath, p.Resolve(p.Output.JUnit))),
		config.WithVerbose(f.verbose),
	}
	return config.NewRunConfig(append(opts, extra...)...), nil
}

// newRand returns a generator seeded from cfg, or from the clock when no
// seed was given.
func newRand(cfg *config.RunConfig) *rand.Rand {
	seed := cfg.Seed()
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// newExecutor wires a conversation driver and an executor for cfg, reporting
// progress to cmd's output.
func (a *app) newExecutor(cmd *cobra.Command, cfg *config.RunConfig, catalog *persona.Catalog, e *engine) *orchestration.Executor {
	driver := conversation.NewDriver(catalog, e.factory,
		conversation.WithLogger(a.logger),
		conversation.WithRand(newRand(cfg)),
		conversation.WithTesterModel(e.testerModel),
	)

	opts := []orchestration.ExecutorOption{
		orchestration.WithWorkers(cfg.Workers()),
		orchestration.WithLogger(a.logger),
	}
	if dir := cfg.TranscriptDir(); dir != "" {
		opts = append(opts, orchestration.WithTranscriptWriter(transcript.Writer{Dir: dir, Gzip: cfg.Gzip()}))
	}

	executor := orchestration.NewExecutor(driver, opts...)
	executor.OnProgress(newProgressPrinter(cmd.OutOrStdout(), cfg.Verbose()).listen)
	return executor
}

// selectPersonas resolves the persona list of a battery or matrix.
func selectPersonas(cfg *config.RunConfig, catalog *persona.Catalog) ([]string, error) {
	if ids := cfg.PersonaIDs(); len(ids) > 0 {
		return persona.LimitIDs(ids), nil
	}
	return persona.Select(catalog, cfg.NumPersonas(), cfg.Mode(), newRand(cfg))
}

func orDefault(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func saveJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
