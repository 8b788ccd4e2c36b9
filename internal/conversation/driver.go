// Package conversation runs a single persona-driven conversation between the
// tester agent and the subject under test.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/qamaster/personaqa/internal/agent"
	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/ids"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/persona"
	"github.com/qamaster/personaqa/internal/termination"
	"github.com/qamaster/personaqa/internal/testscript"
)

const (
	// OpeningPrompt asks the tester for its first line.
	OpeningPrompt = "Inicie a conversa como descrito na Fase 1."

	// FallbackOpening is used when the tester can't produce an opening line.
	FallbackOpening = "oi, quero limpar meu sofa"

	DefaultMaxTurns = 20

	previewLen = 50
)

// TesterDescription is how the tester agent is introduced, ex: "Cliente Ana".
func TesterDescription(p *models.Persona) string {
	return "Cliente " + p.Name
}

// Request describes one conversation.
type Request struct {
	ScriptPath string
	PersonaID  string
	Subject    agent.Agent
	// MaxTurns bounds the number of messages, the opening line included.
	MaxTurns int
}

// Driver runs conversations. It is safe for concurrent use as long as each
// call gets its own Subject.
type Driver struct {
	catalog *persona.Catalog
	testers agent.Factory

	logger       *slog.Logger
	clock        func() time.Time
	ids          ids.Generator
	customerData func(rng *rand.Rand) *models.CustomerData
	testerModel  string

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Driver.
type Option func(*Driver)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRand sets the randomness used for synthetic customer data.
func WithRand(rng *rand.Rand) Option {
	return func(d *Driver) {
		if rng != nil {
			d.rng = rng
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(d *Driver) {
		if clock != nil {
			d.clock = clock
		}
	}
}

func WithIDs(gen ids.Generator) Option {
	return func(d *Driver) {
		if gen != nil {
			d.ids = gen
		}
	}
}

// WithCustomerData replaces the synthetic customer generator. A generator that
// returns nil leaves the customer block out of the tester instructions.
func WithCustomerData(fn func(rng *rand.Rand) *models.CustomerData) Option {
	return func(d *Driver) {
		if fn != nil {
			d.customerData = fn
		}
	}
}

// WithTesterModel sets the model used for tester agents.
func WithTesterModel(model string) Option {
	return func(d *Driver) { d.testerModel = model }
}

// NewDriver creates a Driver that looks personas up in catalog and builds
// tester agents with testers.
func NewDriver(catalog *persona.Catalog, testers agent.Factory, opts ...Option) *Driver {
	d := &Driver{
		catalog:      catalog,
		testers:      testers,
		logger:       slog.New(slog.DiscardHandler),
		clock:        time.Now,
		ids:          ids.UUIDGenerator{},
		customerData: persona.NewCustomerData,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Catalog returns the catalog personas are resolved against.
func (d *Driver) Catalog() *persona.Catalog {
	return d.catalog
}

// Run drives one conversation to completion.
//
// Resolving the script or persona, composing the tester instructions and
// building the tester are the only failures returned as errors. Once the
// conversation has started, a failing agent stops it early and the partial
// transcript is returned with NaturalTermination false.
func (d *Driver) Run(ctx context.Context, req Request) (*models.TestResult, error) {
	if req.Subject == nil {
		return nil, &qaerrors.ValidationError{Field: "subject", Message: "a subject agent is required"}
	}

	if req.MaxTurns < 1 {
		return nil, &qaerrors.ValidationError{
			Field:   "max_turns",
			Message: "must be at least 1",
		}
	}

	script, err := testscript.Load(req.ScriptPath)
	if err != nil {
		return nil, err
	}

	p, err := d.catalog.Get(req.PersonaID)
	if err != nil {
		return nil, err
	}

	data := d.newCustomerData()

	instructions, err := persona.Compose(script.Body, p, data)
	if err != nil {
		return nil, err
	}

	tester, err := d.testers.New(ctx, agent.Spec{
		Role:         agent.RoleTester,
		Description:  TesterDescription(p),
		Instructions: []string{instructions},
		Model:        d.testerModel,
	})
	if err != nil {
		return nil, &qaerrors.CollaboratorError{Role: agent.RoleTester, Cause: err}
	}

	result := &models.TestResult{
		TestID:         d.ids.New(ids.PrefixTest),
		PersonaID:      p.ID,
		PersonaName:    p.Name,
		TestScriptName: script.Name,
		StartTime:      d.clock(),
		Conversation:   []models.ConversationMessage{},
		CustomerData:   data,
	}

	logger := d.logger.With("test_id", result.TestID, "persona", p.ID)
	logger.Info("Starting test", "persona_name", p.Name, "script", script.Name)

	opening, err := d.say(ctx, tester, OpeningPrompt)
	if err != nil || strings.TrimSpace(opening) == "" {
		logger.Warn("Tester failed to open the conversation, using fallback", "error", err)
		opening = FallbackOpening
		result.OpeningFallback = true
	}

	d.appendMessage(result, models.RoleUser, opening, logger)

	for len(result.Conversation) < req.MaxTurns {
		last := result.Conversation[len(result.Conversation)-1]

		speaker, role, name := req.Subject, models.RoleAssistant, agent.RoleSubject
		if last.Role == models.RoleAssistant {
			speaker, role, name = tester, models.RoleUser, agent.RoleTester
		}

		content, err := d.say(ctx, speaker, last.Content)
		if err != nil {
			result.StopReason = models.StopCollaboratorError
			if ctx.Err() != nil {
				result.StopReason = models.StopCanceled
			}

			logger.Error("Conversation stopped early", "turn", len(result.Conversation)+1,
				"error", &qaerrors.CollaboratorError{Role: name, Cause: err})
			break
		}

		d.appendMessage(result, role, content, logger)

		if v := termination.Detect(result.Conversation); v.Over {
			result.NaturalTermination = true
			result.StopReason = models.StopNatural
			logger.Info("Conversation ended naturally", "reason", v.Reason, "pattern", v.Pattern)
			break
		}
	}

	if result.StopReason == "" {
		result.StopReason = models.StopMaxTurns
		logger.Warn("Conversation reached the turn limit", "max_turns", req.MaxTurns)
	}

	result.Finish(d.clock())

	logger.Info("Test complete",
		"turns", result.TotalTurns,
		"natural", result.NaturalTermination,
		"duration", result.DurationSeconds)

	return result, nil
}

func (d *Driver) say(ctx context.Context, a agent.Agent, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := a.Run(ctx, prompt)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("agent returned no response")
	}

	return resp.Content.String(), nil
}

func (d *Driver) appendMessage(result *models.TestResult, role models.Role, content string, logger *slog.Logger) {
	msg := models.ConversationMessage{
		Turn:      len(result.Conversation) + 1,
		Role:      role,
		Content:   content,
		Timestamp: d.clock(),
	}
	result.Conversation = append(result.Conversation, msg)

	logger.Debug("Message", "turn", msg.Turn, "role", msg.Role, "content", preview(content))
}

func (d *Driver) newCustomerData() *models.CustomerData {
	d.rngMu.Lock()
	defer d.rngMu.Unlock()
	return d.customerData(d.rng)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen]) + "..."
}
