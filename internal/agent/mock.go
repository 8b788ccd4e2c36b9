package agent

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ReplyFunc produces the reply for the call-th (zero based) Run of a MockAgent.
type ReplyFunc func(call int, prompt string) (Content, error)

// Scripted replies with the given texts in order and repeats the last one once
// they run out.
func Scripted(replies ...string) ReplyFunc {
	return func(call int, prompt string) (Content, error) {
		if len(replies) == 0 {
			return Text(""), nil
		}
		if call >= len(replies) {
			call = len(replies) - 1
		}
		return Text(replies[call]), nil
	}
}

// Fixed always replies with c.
func Fixed(c Content) ReplyFunc {
	return func(int, string) (Content, error) {
		return c, nil
	}
}

// MockAgent is a deterministic Agent for tests and for the mock engine.
type MockAgent struct {
	modelID string
	reply   ReplyFunc

	failAt  int
	failErr error

	mu      sync.Mutex
	prompts []string
}

// NewMockAgent creates a MockAgent that answers with reply.
func NewMockAgent(modelID string, reply ReplyFunc) *MockAgent {
	return &MockAgent{
		modelID: modelID,
		reply:   reply,
		failAt:  -1,
	}
}

// FailAt makes the call-th (zero based) Run, and every one after it, return err.
func (m *MockAgent) FailAt(call int, err error) *MockAgent {
	m.failAt = call
	m.failErr = err
	return m
}

func (m *MockAgent) Run(ctx context.Context, prompt string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	m.mu.Lock()
	call := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.failAt >= 0 && call >= m.failAt {
		return nil, m.failErr
	}

	content, err := m.reply(call, prompt)
	if err != nil {
		return nil, err
	}

	return &Response{
		Content:    content,
		ModelID:    m.modelID,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// Fork returns a copy of m with no recorded calls.
func (m *MockAgent) Fork(context.Context) (Agent, error) {
	return &MockAgent{
		modelID: m.modelID,
		reply:   m.reply,
		failAt:  m.failAt,
		failErr: m.failErr,
	}, nil
}

// Prompts returns every prompt received so far.
func (m *MockAgent) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockAgent) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// MockFactory builds MockAgents. Roles without an entry in Replies get a canned
// cleaning-service conversation.
type MockFactory struct {
	ModelID string
	Replies map[string]ReplyFunc
}

// NewMockFactory creates a factory that uses the canned replies for every role.
func NewMockFactory(modelID string) *MockFactory {
	return &MockFactory{ModelID: modelID, Replies: map[string]ReplyFunc{}}
}

func (f *MockFactory) New(ctx context.Context, spec Spec) (Agent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modelID := spec.Model
	if modelID == "" {
		modelID = f.ModelID
	}

	if reply, ok := f.Replies[spec.Role]; ok {
		return NewMockAgent(modelID, reply), nil
	}

	switch spec.Role {
	case RoleTester:
		return NewMockAgent(modelID, Scripted(
			"oi, quero limpar meu sofa",
			"é um sofá de 3 lugares, quanto fica?",
			"fechado, obrigado! tchau",
		)), nil
	case RoleSubject:
		return NewMockAgent(modelID, Scripted(
			"Olá! Que bom falar com você. Qual o tamanho do sofá?",
			"Para 3 lugares a higienização fica R$ 180. Posso agendar?",
			"Obrigado pelo contato, tenha um bom dia!",
		)), nil
	case RoleJudge:
		return NewMockAgent(modelID, Fixed(Mapping(mockEvaluation()))), nil
	default:
		return nil, fmt.Errorf("unknown agent role %q", spec.Role)
	}
}

func mockEvaluation() map[string]any {
	return map[string]any{
		"scores": map[string]any{
			"compliance":            85,
			"eficacia":              80,
			"eficiencia":            75,
			"qualidade_comunicacao": 90,
			"experiencia_usuario":   85,
			"score_geral":           83,
		},
		"resumo": map[string]any{
			"resultado":     "APROVADO",
			"pontos_fortes": []any{"Tom cordial", "Informou o preço"},
			"pontos_fracos": []any{"Não confirmou o endereço"},
			"recomendacoes": []any{"Coletar endereço antes de agendar"},
		},
		"status_final": map[string]any{
			"aprovado":             true,
			"pronto_para_producao": true,
		},
	}
}
