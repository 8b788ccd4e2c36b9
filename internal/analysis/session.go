package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/qamaster/personaqa/internal/agent"
	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/ids"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/orchestration"
	"github.com/qamaster/personaqa/internal/persona"
	"github.com/qamaster/personaqa/internal/testscript"
)

// SessionRequest describes one judged battery.
type SessionRequest struct {
	ScriptPath string

	// PersonaIDs, when set, wins over NumPersonas and Mode. Only the first
	// persona.MaxPersonas ids are used.
	PersonaIDs  []string
	NumPersonas int
	Mode        persona.Mode

	Subject agent.Agent
	// Judge may be nil, in which case every conversation ends up without
	// an evaluation.
	Judge agent.Agent

	MaxTurns int
	// Rules are the subject's declared rules, quoted in every judge request.
	Rules string
}

// SessionRunner runs the three phases of a consolidated session: execute the
// battery, judge each conversation, aggregate the evaluations.
type SessionRunner struct {
	executor *orchestration.Executor
	logger   *slog.Logger
	clock    func() time.Time
	ids      ids.Generator
	ciSeed   int64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// SessionOption configures a SessionRunner.
type SessionOption func(*SessionRunner)

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *SessionRunner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRand sets the randomness used by random persona selection.
func WithRand(rng *rand.Rand) SessionOption {
	return func(s *SessionRunner) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func WithClock(clock func() time.Time) SessionOption {
	return func(s *SessionRunner) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithIDs(gen ids.Generator) SessionOption {
	return func(s *SessionRunner) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// WithCISeed fixes the seed of the bootstrap confidence interval.
func WithCISeed(seed int64) SessionOption {
	return func(s *SessionRunner) { s.ciSeed = seed }
}

// NewSessionRunner creates a SessionRunner on top of executor.
func NewSessionRunner(executor *orchestration.Executor, opts ...SessionOption) *SessionRunner {
	s := &SessionRunner{
		executor: executor,
		logger:   slog.New(slog.DiscardHandler),
		clock:    time.Now,
		ids:      ids.UUIDGenerator{},
		ciSeed:   42,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes a consolidated session.
//
// A missing script, an invalid selection and malformed arguments are returned
// as errors. Failures inside a cell or from the judge only show up in the
// report.
func (s *SessionRunner) Run(ctx context.Context, req SessionRequest) (*models.ConsolidatedSession, error) {
	script, err := testscript.Load(req.ScriptPath)
	if err != nil {
		return nil, err
	}
	if req.Subject == nil {
		return nil, &qaerrors.ValidationError{Field: "subject", Message: "a subject agent is required"}
	}

	personaIDs, err := s.selectPersonas(req)
	if err != nil {
		return nil, err
	}

	start := s.clock()
	session := &models.ConsolidatedSession{
		SessionID:      s.ids.New(ids.PrefixSession),
		StartTime:      start,
		NumPersonas:    len(personaIDs),
		MaxTurns:       req.MaxTurns,
		TestScriptName: script.Name,
	}

	logger := s.logger.With("session", session.SessionID)
	logger.Info("Starting session", "script", script.Name, "personas", len(personaIDs), "max_turns", req.MaxTurns)

	cells, err := s.executor.RunBattery(ctx, script.Path, personaIDs, req.Subject, req.MaxTurns)
	if err != nil {
		return nil, err
	}

	acc := NewAccumulator(s.ciSeed)
	for i, c := range cells {
		if c.IsError() {
			if c.Error.PersonaName == "" {
				c.Error.PersonaName = c.Error.PersonaID
			}
			acc.AddError(c.Error)
			continue
		}

		c.Result.Evaluation = s.evaluate(ctx, logger, req, c.Result, i+1, len(cells))
		acc.Add(c.Result, c.Result.Evaluation)
	}

	session.EndTime = s.clock()
	session.DurationSeconds = models.Seconds(session.EndTime.Sub(start))
	session.PersonaResults = acc.Summaries()
	session.Tests = cells
	session.Analysis = acc.Finalize(len(cells))

	logger.Info("Session complete",
		"tests", session.Analysis.TotalTests,
		"approval_rate", session.Analysis.ApprovalRate,
		"mean_score", session.Analysis.MeanOverallScore,
		"duration_s", session.DurationSeconds)

	return session, nil
}

func (s *SessionRunner) selectPersonas(req SessionRequest) ([]string, error) {
	if len(req.PersonaIDs) > 0 {
		return persona.LimitIDs(req.PersonaIDs), nil
	}

	count := req.NumPersonas
	if count == 0 {
		count = persona.DefaultCount
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return persona.Select(s.executor.Driver().Catalog(), count, req.Mode, s.rng)
}

// evaluate asks a fresh judge session to grade r. Any failure is logged and
// yields nil.
func (s *SessionRunner) evaluate(ctx context.Context, logger *slog.Logger, req SessionRequest, r *models.TestResult, num, total int) *models.Evaluation {
	if req.Judge == nil {
		return nil
	}

	logger = logger.With("test_id", r.TestID, "persona", r.PersonaID)
	s.executor.Emit(orchestration.ProgressEvent{
		EventType:  orchestration.EventEvaluationStart,
		Script:     r.TestScriptName,
		PersonaID:  r.PersonaID,
		CellNum:    num,
		TotalCells: total,
	})

	start := time.Now()
	eval, err := s.safeJudge(ctx, logger, req, r)

	event := orchestration.ProgressEvent{
		EventType:  orchestration.EventEvaluationComplete,
		Script:     r.TestScriptName,
		PersonaID:  r.PersonaID,
		CellNum:    num,
		TotalCells: total,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		logger.Warn("Evaluation not available", "error", err)
		event.Error = err.Error()
	} else if eval.Scores != nil {
		event.Details = map[string]any{"score": eval.Scores.Overall, "approved": eval.Approved()}
	}
	s.executor.Emit(event)

	return eval
}

// safeJudge turns a judge panic into an error so the other evaluations of the
// session survive it.
func (s *SessionRunner) safeJudge(ctx context.Context, logger *slog.Logger, req SessionRequest, r *models.TestResult) (eval *models.Evaluation, err error) {
	defer func() {
		if p := recover(); p != nil {
			eval = nil
			err = &qaerrors.CollaboratorError{Role: agent.RoleJudge, Cause: fmt.Errorf("panic: %v", p)}
		}
	}()
	return s.judge(ctx, logger, req, r)
}

func (s *SessionRunner) judge(ctx context.Context, logger *slog.Logger, req SessionRequest, r *models.TestResult) (*models.Evaluation, error) {
	judge, err := agent.ForkOrSelf(ctx, req.Judge)
	if err != nil {
		return nil, &qaerrors.CollaboratorError{Role: agent.RoleJudge, Cause: err}
	}

	resp, err := judge.Run(ctx, FormatRequest(req.Rules, r))
	if err != nil {
		return nil, &qaerrors.CollaboratorError{Role: agent.RoleJudge, Cause: err}
	}
	if resp == nil {
		return nil, &qaerrors.CollaboratorError{Role: agent.RoleJudge, Cause: errors.New("empty response")}
	}

	return ExtractEvaluation(resp.Content, logger)
}
