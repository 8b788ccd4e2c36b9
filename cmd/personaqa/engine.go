package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/qamaster/personaqa/internal/agent"
	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/spf13/cobra"
)

const (
	engineMock    = "mock"
	engineCopilot = "copilot-sdk"
)

// Used when no judge instructions file is configured or it can't be read.
const defaultJudgeInstructions = "Analise a conversa a seguir entre um Testador QA e um Agente Sujeito. " +
	"Com base nos objetivos, avalie o desempenho do Agente Sujeito. " +
	"Retorne o resultado no formato JSON especificado. " +
	"Os campos de texto DEVEM estar em Português do Brasil."

const judgeDescription = "Você é o Juiz Final."

// engineFlags selects the agent runtime and the model of each role.
type engineFlags struct {
	engine              string
	model               string
	subjectModel        string
	testerModel         string
	judgeModel          string
	subjectInstructions string
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.engine, "engine", "", "Agent engine: copilot-sdk, mock (default: defaults.engine)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model for every role unless overridden per role")
	cmd.Flags().StringVar(&f.subjectModel, "subject-model", "", "Model for the agent under test")
	cmd.Flags().StringVar(&f.testerModel, "tester-model", "", "Model for the persona tester")
	cmd.Flags().StringVar(&f.subjectInstructions, "subject-instructions", "", "File with the instructions of the agent under test")
}

func (f *engineFlags) registerJudge(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.judgeModel, "judge-model", "", "Model for the judge")
}

// engine is a configured agent factory plus the models to ask it for.
type engine struct {
	name    string
	factory agent.Factory
	// shutdown releases the runtime. It is never nil.
	shutdown func(ctx context.Context) error

	subjectModel string
	testerModel  string
	judgeModel   string
}

func (a *app) newEngine(f engineFlags) (*engine, error) {
	d := a.project.Defaults

	e := &engine{
		name:         firstNonEmpty(f.engine, d.Engine),
		subjectModel: firstNonEmpty(f.subjectModel, f.model, d.SubjectModel),
		testerModel:  firstNonEmpty(f.testerModel, f.model, d.TesterModel),
		judgeModel:   firstNonEmpty(f.judgeModel, f.model, d.JudgeModel),
		shutdown:     func(context.Context) error { return nil },
	}

	switch e.name {
	case engineMock:
		e.factory = agent.NewMockFactory(e.subjectModel)
	case engineCopilot:
		opts := []agent.CopilotOption{
			agent.WithDefaultModel(e.subjectModel),
			agent.WithTimeout(time.Duration(d.Timeout) * time.Second),
			agent.WithLogger(a.logger),
		}
		if d.Retries != nil {
			opts = append(opts, agent.WithRetries(*d.Retries))
		}
		if a.project.Dir != "" {
			opts = append(opts, agent.WithWorkingDirectory(a.project.Dir))
		}
		copilotFactory := agent.NewCopilotFactory(opts...)
		e.factory = copilotFactory
		e.shutdown = copilotFactory.Shutdown
	default:
		return nil, &qaerrors.ValidationError{
			Field:      "engine",
			Message:    fmt.Sprintf("unknown engine type: %s", e.name),
			Suggestion: "use copilot-sdk or mock",
		}
	}

	a.logger.Debug("Engine configured", "engine", e.name,
		"subject_model", e.subjectModel, "tester_model", e.testerModel, "judge_model", e.judgeModel)
	return e, nil
}

func (a *app) newSubject(ctx context.Context, e *engine, instructionsFile string) (agent.Agent, error) {
	path := firstNonEmpty(instructionsFile, a.project.Resolve(a.project.Subject.InstructionsFile))

	var instructions []string
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading subject instructions: %w", err)
		}
		instructions = append(instructions, strings.TrimSpace(string(data)))
	} else {
		a.logger.Warn("No subject instructions configured, the subject only gets its description")
	}

	subject, err := e.factory.New(ctx, agent.Spec{
		Role:         agent.RoleSubject,
		Description:  a.project.Subject.Description,
		Instructions: instructions,
		Model:        e.subjectModel,
	})
	if err != nil {
		return nil, &qaerrors.CollaboratorError{Role: agent.RoleSubject, Cause: err}
	}
	return subject, nil
}

func (a *app) newJudge(ctx context.Context, e *engine, instructionsFile string) (agent.Agent, error) {
	judge, err := e.factory.New(ctx, agent.Spec{
		Role:         agent.RoleJudge,
		Description:  judgeDescription,
		Instructions: []string{a.judgeInstructions(instructionsFile)},
		Model:        e.judgeModel,
	})
	if err != nil {
		return nil, &qaerrors.CollaboratorError{Role: agent.RoleJudge, Cause: err}
	}
	return judge, nil
}

// judgeInstructions reads the judge prompt. An unreadable file is not fatal:
// the built-in instructions are used instead.
func (a *app) judgeInstructions(path string) string {
	path = firstNonEmpty(path, a.project.Resolve(a.project.Judge.InstructionsFile))
	if path == "" {
		return defaultJudgeInstructions
	}

	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Warn("Can't read judge instructions, using built-in ones", "path", path, "error", err)
		return defaultJudgeInstructions
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return defaultJudgeInstructions
}

// readRules returns the subject's declared rules, quoted in every judge request.
func (a *app) readRules(path string) (string, error) {
	path = firstNonEmpty(path, a.project.Resolve(a.project.Judge.RulesFile))
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading rules: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
