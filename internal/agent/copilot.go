package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	copilot "github.com/github/copilot-sdk/go"
)

const (
	DefaultTimeout = 300 * time.Second
	DefaultRetries = 3
)

// CopilotFactory builds agents backed by GitHub Copilot sessions. All agents
// share one client, which is started on first use.
type CopilotFactory struct {
	defaultModelID string
	timeout        time.Duration
	retries        int
	retryInterval  time.Duration
	workDir        string
	logger         *slog.Logger

	newClient func(clientOptions *copilot.ClientOptions) runtimeClient
	client    runtimeClient

	startOnce sync.Once
	startErr  error
}

// CopilotOption configures a CopilotFactory.
type CopilotOption func(*CopilotFactory)

// WithDefaultModel is used when an agent Spec has no model. Can be blank, which
// means the copilot CLI will choose its own fallback model.
func WithDefaultModel(modelID string) CopilotOption {
	return func(f *CopilotFactory) { f.defaultModelID = modelID }
}

// WithTimeout bounds every single agent call.
func WithTimeout(d time.Duration) CopilotOption {
	return func(f *CopilotFactory) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRetries sets how many times a failed call is retried.
func WithRetries(n int) CopilotOption {
	return func(f *CopilotFactory) { f.retries = n }
}

// WithRetryInterval sets the first backoff interval between retries.
func WithRetryInterval(d time.Duration) CopilotOption {
	return func(f *CopilotFactory) { f.retryInterval = d }
}

// WithWorkingDirectory sets the working directory of new sessions.
func WithWorkingDirectory(dir string) CopilotOption {
	return func(f *CopilotFactory) { f.workDir = dir }
}

func WithLogger(logger *slog.Logger) CopilotOption {
	return func(f *CopilotFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func withClientFactory(newClient func(clientOptions *copilot.ClientOptions) runtimeClient) CopilotOption {
	return func(f *CopilotFactory) { f.newClient = newClient }
}

// NewCopilotFactory creates a CopilotFactory.
func NewCopilotFactory(opts ...CopilotOption) *CopilotFactory {
	f := &CopilotFactory{
		timeout:       DefaultTimeout,
		retries:       DefaultRetries,
		retryInterval: time.Second,
		logger:        slog.New(slog.DiscardHandler),
		newClient:     newRuntimeClient,
	}

	for _, opt := range opts {
		opt(f)
	}

	f.client = f.newClient(&copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	})

	return f
}

// New returns an agent for spec. No session is opened until the first Run.
func (f *CopilotFactory) New(ctx context.Context, spec Spec) (Agent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if spec.Model == "" {
		spec.Model = f.defaultModelID
	}

	return &CopilotAgent{factory: f, spec: spec}, nil
}

// Shutdown stops the shared client.
func (f *CopilotFactory) Shutdown(ctx context.Context) error {
	if err := f.client.Stop(); err != nil {
		// Log but continue cleanup
		f.logger.Info("failed to stop client", "error", err)
	}
	return nil
}

func (f *CopilotFactory) start(ctx context.Context) error {
	// copilot's AutoStart runs into issues when it starts from separate
	// goroutines, so the client is started once, explicitly.
	f.startOnce.Do(func() {
		f.startErr = f.client.Start(ctx)
	})

	if f.startErr != nil {
		return fmt.Errorf("copilot failed to start: %w", f.startErr)
	}
	return nil
}

// CopilotAgent keeps one Copilot session for its whole lifetime so each call
// sees the conversation so far.
type CopilotAgent struct {
	factory *CopilotFactory
	spec    Spec

	mu      sync.Mutex
	session runtimeSession
	primed  bool
	// history holds every completed exchange, replayed into a new session
	// when a failed call forces the old one to be dropped.
	history []exchange
}

type exchange struct {
	prompt, reply string
}

// Run sends prompt to the session and returns the assistant's reply. The first
// prompt carries the agent description and instructions.
//
// A failed attempt may already sit in the session's history, so every retry
// runs on a fresh session primed with the exchanges so far.
func (a *CopilotAgent) Run(ctx context.Context, prompt string) (*Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.factory.start(ctx); err != nil {
		return nil, err
	}

	start := time.Now()

	var content string

	err := retry(ctx, a.factory.retries, a.factory.retryInterval, a.factory.logger, func() error {
		if a.session == nil {
			if err := a.open(ctx); err != nil {
				return err
			}
		}

		reply, err := a.send(ctx, a.message(prompt))
		if err != nil {
			a.factory.logger.Debug("Dropping session after failed call", "role", a.spec.Role, "session", a.session.ID(), "error", err)
			a.session = nil
			a.primed = false
			return err
		}

		content = reply
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.primed = true
	a.history = append(a.history, exchange{prompt: prompt, reply: content})

	return &Response{
		Content:    Text(content),
		ModelID:    a.spec.Model,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (a *CopilotAgent) open(ctx context.Context) error {
	session, err := a.factory.client.Open(ctx, sessionOptions{
		Model:   a.spec.Model,
		WorkDir: a.factory.workDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	a.session = session
	a.factory.logger.Debug("Session created", "role", a.spec.Role, "session", session.ID())
	return nil
}

func (a *CopilotAgent) send(ctx context.Context, message string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.factory.timeout)
	defer cancel()

	collector := &messageCollector{}

	unsubscribe := a.session.Subscribe(collector.On)
	defer unsubscribe()

	unsubscribe = a.session.Subscribe(SessionToSlog(a.factory.logger))
	defer unsubscribe()

	if err := a.session.Send(callCtx, message); err != nil {
		return "", err
	}

	if msg := collector.ErrorMessage(); msg != "" {
		return "", errors.New(msg)
	}

	return collector.Content(), nil
}

// message is prompt as it must be sent to the current session. An unprimed
// session first gets the preamble and the exchanges so far.
func (a *CopilotAgent) message(prompt string) string {
	if a.primed {
		return prompt
	}
	return a.preamble() + a.replay() + prompt
}

func (a *CopilotAgent) replay() string {
	if len(a.history) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Histórico da conversa até aqui:\n\n")
	for _, e := range a.history {
		sb.WriteString("Mensagem recebida:\n")
		sb.WriteString(e.prompt)
		sb.WriteString("\n\nSua resposta:\n")
		sb.WriteString(e.reply)
		sb.WriteString("\n\n")
	}
	sb.WriteString("---\n\n")
	return sb.String()
}

// Fork returns an agent with the same spec and a fresh session.
func (a *CopilotAgent) Fork(ctx context.Context) (Agent, error) {
	return a.factory.New(ctx, a.spec)
}

func (a *CopilotAgent) preamble() string {
	var sb strings.Builder

	if a.spec.Description != "" {
		sb.WriteString("Você é: ")
		sb.WriteString(a.spec.Description)
		sb.WriteString("\n\n")
	}

	for _, inst := range a.spec.Instructions {
		if strings.TrimSpace(inst) == "" {
			continue
		}
		sb.WriteString(strings.TrimSpace(inst))
		sb.WriteString("\n\n")
	}

	if sb.Len() == 0 {
		return ""
	}

	sb.WriteString("---\n\n")
	return sb.String()
}
