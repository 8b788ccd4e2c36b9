// Package termination decides whether a simulated conversation has reached a
// natural end.
package termination

import (
	"regexp"

	"github.com/qamaster/personaqa/internal/models"
)

// Window is the number of trailing messages inspected.
const Window = 4

// Reason identifies which rule ended a conversation.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonEndMarker Reason = "end_marker"
	ReasonFarewell  Reason = "farewell"
)

// Verdict is the outcome of Detect.
type Verdict struct {
	Over    bool
	Reason  Reason
	Pattern string
}

// endPatterns are explicit end markers and transfer-to-sales actions.
var endPatterns = compileAll(
	`\[FIM\]`,
	`\[ENCERRAR\]`,
	`transferir_para_comercial`,
	`transferido.*comercial`,
)

// farewellPatterns both sides must use for a bilateral goodbye.
var farewellPatterns = compileAll(
	`tchau`,
	`até mais`,
	`obrigad[oa]`,
	`valeu`,
	`falou`,
	`vlw`,
	`foi bom falar`,
	`boa sorte`,
	`tudo certo`,
	`tenha um bom dia`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// IsOver reports whether the conversation has concluded. It only looks at the
// last Window messages, and an empty conversation is never over.
func IsOver(conversation []models.ConversationMessage) bool {
	return Detect(conversation).Over
}

// Detect is IsOver with the matching rule and pattern.
//
// Rules, in order:
//  1. any trailing message contains an end marker or a transfer to sales;
//  2. the latest user message and the latest assistant message in the window
//     both contain a farewell phrase.
func Detect(conversation []models.ConversationMessage) Verdict {
	if len(conversation) == 0 {
		return Verdict{}
	}

	window := conversation
	if len(window) > Window {
		window = window[len(window)-Window:]
	}

	for _, msg := range window {
		if p := firstMatch(endPatterns, msg.Content); p != "" {
			return Verdict{Over: true, Reason: ReasonEndMarker, Pattern: p}
		}
	}

	var user, assistant *models.ConversationMessage
	for i := len(window) - 1; i >= 0; i-- {
		msg := &window[i]
		switch {
		case msg.Role == models.RoleUser && user == nil:
			user = msg
		case msg.Role == models.RoleAssistant && assistant == nil:
			assistant = msg
		}
	}
	if user == nil || assistant == nil {
		return Verdict{}
	}

	if firstMatch(farewellPatterns, user.Content) != "" {
		if p := firstMatch(farewellPatterns, assistant.Content); p != "" {
			return Verdict{Over: true, Reason: ReasonFarewell, Pattern: p}
		}
	}

	return Verdict{}
}

func firstMatch(patterns []*regexp.Regexp, content string) string {
	for _, re := range patterns {
		if re.MatchString(content) {
			return re.String()
		}
	}
	return ""
}
