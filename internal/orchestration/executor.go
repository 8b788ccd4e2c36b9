package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/qamaster/personaqa/internal/agent"
	"github.com/qamaster/personaqa/internal/conversation"
	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/ids"
	"github.com/qamaster/personaqa/internal/models"
	"golang.org/x/sync/errgroup"
)

// Executor runs the conversation driver over batteries (one script, many
// personas) and matrices (many scripts, many personas). A failing cell never
// stops the others: it becomes an error record in its slot.
type Executor struct {
	driver      *conversation.Driver
	workers     int
	logger      *slog.Logger
	ids         ids.Generator
	transcripts TranscriptWriter

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// TranscriptWriter persists each successful conversation.
type TranscriptWriter interface {
	WriteResult(r *models.TestResult) (string, error)
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventBatchStart         EventType = "batch_start"
	EventBatchComplete      EventType = "batch_complete"
	EventCellStart          EventType = "cell_start"
	EventCellComplete       EventType = "cell_complete"
	EventCellError          EventType = "cell_error"
	EventEvaluationStart    EventType = "evaluation_start"
	EventEvaluationComplete EventType = "evaluation_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType  EventType
	Script     string
	PersonaID  string
	CellNum    int
	TotalCells int
	DurationMs int64
	Error      string
	Details    map[string]any
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithWorkers sets how many cells run at once. Values below 1 mean 1.
func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		e.workers = max(n, 1)
	}
}

func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDs sets the generator for error record ids.
func WithIDs(gen ids.Generator) ExecutorOption {
	return func(e *Executor) {
		if gen != nil {
			e.ids = gen
		}
	}
}

// WithTranscriptWriter writes a transcript for every successful cell.
func WithTranscriptWriter(w TranscriptWriter) ExecutorOption {
	return func(e *Executor) {
		e.transcripts = w
	}
}

// NewExecutor creates an Executor around driver.
func NewExecutor(driver *conversation.Driver, opts ...ExecutorOption) *Executor {
	e := &Executor{
		driver:    driver,
		workers:   1,
		logger:    slog.New(slog.DiscardHandler),
		ids:       ids.UUIDGenerator{},
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Driver returns the conversation driver cells are run with.
func (e *Executor) Driver() *conversation.Driver {
	return e.driver
}

// OnProgress registers a progress listener
func (e *Executor) OnProgress(listener ProgressListener) {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Emit sends event to every listener. Layers built on top of the executor
// use it to report their own phases.
func (e *Executor) Emit(event ProgressEvent) {
	e.progressMu.Lock()
	listeners := make([]ProgressListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

type cell struct {
	index     int
	script    string
	personaID string
}

// RunBattery runs one script against every persona, in persona order.
func (e *Executor) RunBattery(ctx context.Context, scriptPath string, personaIDs []string, subject agent.Agent, maxTurns int) ([]models.CellResult, error) {
	return e.RunMatrix(ctx, []string{scriptPath}, personaIDs, subject, maxTurns)
}

// RunMatrix runs every script against every persona. Results are ordered
// script-major, then persona-minor, whatever the number of workers.
func (e *Executor) RunMatrix(ctx context.Context, scriptPaths []string, personaIDs []string, subject agent.Agent, maxTurns int) ([]models.CellResult, error) {
	if err := validateBatch(scriptPaths, personaIDs, subject, maxTurns); err != nil {
		return nil, err
	}

	cells := make([]cell, 0, len(scriptPaths)*len(personaIDs))
	for _, script := range scriptPaths {
		for _, personaID := range personaIDs {
			cells = append(cells, cell{index: len(cells), script: script, personaID: personaID})
		}
	}

	e.logger.Info("Starting batch", "scripts", len(scriptPaths), "personas", len(personaIDs), "cells", len(cells))
	e.Emit(ProgressEvent{EventType: EventBatchStart, TotalCells: len(cells)})

	start := time.Now()

	workers := e.workers
	if _, ok := subject.(agent.Forker); !ok && workers > 1 {
		e.logger.Warn("Subject agent can't be forked, running cells one at a time", "workers", workers)
		workers = 1
	}

	var results []models.CellResult
	if workers > 1 {
		results = e.runConcurrent(ctx, cells, subject, maxTurns, workers)
	} else {
		results = e.runSequential(ctx, cells, subject, maxTurns)
	}

	failed := 0
	for _, r := range results {
		if r.IsError() {
			failed++
		}
	}

	e.Emit(ProgressEvent{
		EventType:  EventBatchComplete,
		TotalCells: len(cells),
		DurationMs: time.Since(start).Milliseconds(),
		Details:    map[string]any{"failed": failed},
	})
	e.logger.Info("Batch complete", "cells", len(cells), "failed", failed)

	return results, nil
}

func validateBatch(scriptPaths []string, personaIDs []string, subject agent.Agent, maxTurns int) error {
	switch {
	case len(scriptPaths) == 0:
		return &qaerrors.ValidationError{Field: "scripts", Message: "at least one test script is required"}
	case len(personaIDs) == 0:
		return &qaerrors.ValidationError{Field: "persona_ids", Message: "at least one persona is required"}
	case subject == nil:
		return &qaerrors.ValidationError{Field: "subject", Message: "a subject agent is required"}
	case maxTurns < 1:
		return &qaerrors.ValidationError{Field: "max_turns", Message: fmt.Sprintf("must be at least 1, got %d", maxTurns)}
	}
	return nil
}

func (e *Executor) runSequential(ctx context.Context, cells []cell, subject agent.Agent, maxTurns int) []models.CellResult {
	results := make([]models.CellResult, 0, len(cells))
	for _, c := range cells {
		results = append(results, e.runCell(ctx, c, len(cells), subject, maxTurns))
	}
	return results
}

func (e *Executor) runConcurrent(ctx context.Context, cells []cell, subject agent.Agent, maxTurns, workers int) []models.CellResult {
	results := make([]models.CellResult, len(cells))

	var g errgroup.Group
	g.SetLimit(workers)

	for _, c := range cells {
		g.Go(func() error {
			results[c.index] = e.runCell(ctx, c, len(cells), subject, maxTurns)
			return nil
		})
	}

	// cells never return errors, they're turned into records
	_ = g.Wait()

	return results
}

func (e *Executor) runCell(ctx context.Context, c cell, total int, subject agent.Agent, maxTurns int) (cr models.CellResult) {
	start := time.Now()
	scriptName := filepath.Base(c.script)

	e.Emit(ProgressEvent{
		EventType:  EventCellStart,
		Script:     scriptName,
		PersonaID:  c.personaID,
		CellNum:    c.index + 1,
		TotalCells: total,
	})

	defer func() {
		if r := recover(); r != nil {
			cr = e.failCell(c, total, start, fmt.Errorf("panic while running cell: %v", r))
		}
	}()

	cellSubject, err := agent.ForkOrSelf(ctx, subject)
	if err != nil {
		return e.failCell(c, total, start, fmt.Errorf("failed to fork subject: %w", err))
	}

	result, err := e.driver.Run(ctx, conversation.Request{
		ScriptPath: c.script,
		PersonaID:  c.personaID,
		Subject:    cellSubject,
		MaxTurns:   maxTurns,
	})
	if err != nil {
		return e.failCell(c, total, start, err)
	}

	if e.transcripts != nil {
		if path, err := e.transcripts.WriteResult(result); err != nil {
			e.logger.Warn("Failed to write transcript", "test_id", result.TestID, "error", err)
		} else {
			e.logger.Debug("Transcript written", "test_id", result.TestID, "path", path)
		}
	}

	e.Emit(ProgressEvent{
		EventType:  EventCellComplete,
		Script:     scriptName,
		PersonaID:  c.personaID,
		CellNum:    c.index + 1,
		TotalCells: total,
		DurationMs: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"test_id": result.TestID,
			"turns":   result.TotalTurns,
			"natural": result.NaturalTermination,
		},
	})

	return models.CellResult{Result: result}
}

func (e *Executor) failCell(c cell, total int, start time.Time, err error) models.CellResult {
	record := &models.ErrorRecord{
		TestID:         e.ids.New(ids.PrefixError),
		TestScriptName: filepath.Base(c.script),
		PersonaID:      c.personaID,
		Error:          err.Error(),
	}

	e.logger.Error("Cell failed", "script", record.TestScriptName, "persona", c.personaID, "error", err)

	e.Emit(ProgressEvent{
		EventType:  EventCellError,
		Script:     record.TestScriptName,
		PersonaID:  c.personaID,
		CellNum:    c.index + 1,
		TotalCells: total,
		DurationMs: time.Since(start).Milliseconds(),
		Error:      record.Error,
		Details:    map[string]any{"test_id": record.TestID},
	})

	return models.CellResult{Error: record}
}
