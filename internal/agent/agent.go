// Package agent wraps the conversational agents a session talks to: the
// subject under test, the persona-driven tester and the judge.
package agent

import (
	"context"
	"encoding/json"

	"github.com/qamaster/personaqa/internal/models"
)

// Roles an agent can play in a session.
const (
	RoleSubject = "subject"
	RoleTester  = "tester"
	RoleJudge   = "judge"
)

// Agent is a stateful conversational collaborator. Successive calls to Run on
// the same Agent continue the same conversation.
type Agent interface {
	Run(ctx context.Context, prompt string) (*Response, error)
}

// Forker is implemented by agents that can hand out an independent copy of
// themselves with an empty conversation history.
type Forker interface {
	Fork(ctx context.Context) (Agent, error)
}

// ForkOrSelf forks a when it supports it, otherwise a is returned unchanged.
func ForkOrSelf(ctx context.Context, a Agent) (Agent, error) {
	if f, ok := a.(Forker); ok {
		return f.Fork(ctx)
	}
	return a, nil
}

// Spec describes the agent a Factory should build.
type Spec struct {
	// Role is one of RoleSubject, RoleTester or RoleJudge.
	Role string
	// Description is a short name for the agent, ex: "Cliente Ana".
	Description  string
	Instructions []string
	// Model can be blank, in which case the factory default is used.
	Model string
}

// Factory builds agents.
type Factory interface {
	New(ctx context.Context, spec Spec) (Agent, error)
}

// Response is the result of a single Run.
type Response struct {
	Content    Content
	ModelID    string
	DurationMs int64
}

// ContentKind identifies which variant a Content holds.
type ContentKind int

const (
	ContentText ContentKind = iota
	ContentEvaluation
	ContentMapping
)

func (k ContentKind) String() string {
	switch k {
	case ContentEvaluation:
		return "evaluation"
	case ContentMapping:
		return "mapping"
	default:
		return "text"
	}
}

// Content is what an agent answered with: plain text, an already typed
// evaluation, or a loosely typed mapping.
type Content struct {
	kind       ContentKind
	text       string
	evaluation *models.Evaluation
	mapping    map[string]any
}

func Text(s string) Content {
	return Content{kind: ContentText, text: s}
}

func Structured(e *models.Evaluation) Content {
	return Content{kind: ContentEvaluation, evaluation: e}
}

func Mapping(m map[string]any) Content {
	return Content{kind: ContentMapping, mapping: m}
}

func (c Content) Kind() ContentKind {
	return c.kind
}

// Text returns the text variant, or "" for the other kinds.
func (c Content) Text() string {
	if c.kind != ContentText {
		return ""
	}
	return c.text
}

func (c Content) Evaluation() (*models.Evaluation, bool) {
	return c.evaluation, c.kind == ContentEvaluation && c.evaluation != nil
}

func (c Content) Mapping() (map[string]any, bool) {
	return c.mapping, c.kind == ContentMapping && c.mapping != nil
}

// String renders any variant as text. Structured variants are rendered as JSON.
func (c Content) String() string {
	var v any
	switch c.kind {
	case ContentEvaluation:
		v = c.evaluation
	case ContentMapping:
		v = c.mapping
	default:
		return c.text
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
