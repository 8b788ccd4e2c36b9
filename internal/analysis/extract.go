package analysis

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/qamaster/personaqa/internal/agent"
	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/validation"
)

const judgeSource = "judge output"

// ExtractEvaluation turns judge content into an Evaluation.
//
// This is a best-effort and lossy stage:
//   - a typed evaluation is returned as is;
//   - text is cut from its first '{' to its last '}' and parsed as JSON, so
//     anything outside that span is dropped and nested prose breaks it;
//   - a mapping is decoded with weak typing, so "85" becomes 85 and unknown
//     keys are ignored.
//
// Anything that can't be read this way is a ParseError. Schema violations are
// only logged at debug level, the evaluation is still returned.
func ExtractEvaluation(content agent.Content, logger *slog.Logger) (*models.Evaluation, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	switch content.Kind() {
	case agent.ContentEvaluation:
		if e, ok := content.Evaluation(); ok {
			return e, nil
		}
		return nil, &qaerrors.ParseError{Source: judgeSource, Message: "empty evaluation"}

	case agent.ContentMapping:
		m, ok := content.Mapping()
		if !ok {
			return nil, &qaerrors.ParseError{Source: judgeSource, Message: "empty mapping"}
		}
		return decodeEvaluation(m, logger)

	default:
		m, err := jsonObject(content.Text())
		if err != nil {
			return nil, err
		}
		return decodeEvaluation(m, logger)
	}
}

// jsonObject parses the span between the first '{' and the last '}' of text.
func jsonObject(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, &qaerrors.ParseError{Source: judgeSource, Message: "no JSON object found"}
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &m); err != nil {
		return nil, &qaerrors.ParseError{Source: judgeSource, Message: "invalid JSON object", Cause: err}
	}
	return m, nil
}

func decodeEvaluation(m map[string]any, logger *slog.Logger) (*models.Evaluation, error) {
	if issues := validation.ValidateEvaluation(m); len(issues) > 0 {
		logger.Debug("Judge output doesn't match the evaluation schema", "issues", issues)
	}

	var eval models.Evaluation
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &eval,
	})
	if err != nil {
		return nil, &qaerrors.ParseError{Source: judgeSource, Message: "cannot build decoder", Cause: err}
	}

	if err := decoder.Decode(m); err != nil {
		return nil, &qaerrors.ParseError{Source: judgeSource, Message: "unexpected evaluation shape", Cause: err}
	}

	return &eval, nil
}
