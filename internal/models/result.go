package models

import (
	"encoding/json"
	"math"
	"time"
)

// StopReason records why a conversation loop exited.
type StopReason string

const (
	StopNatural           StopReason = "natural"
	StopMaxTurns          StopReason = "max_turns"
	StopCollaboratorError StopReason = "collaborator_error"
	StopCanceled          StopReason = "canceled"
)

// TestResult is the outcome of one persona conversation against the subject.
type TestResult struct {
	TestID             string                `json:"test_id"`
	PersonaID          string                `json:"persona_id"`
	PersonaName        string                `json:"persona_nome"`
	TestScriptName     string                `json:"prompt_teste"`
	StartTime          time.Time             `json:"timestamp_inicio"`
	EndTime            time.Time             `json:"timestamp_fim"`
	DurationSeconds    float64               `json:"duracao_segundos"`
	TotalTurns         int                   `json:"total_turnos"`
	NaturalTermination bool                  `json:"finalizado_naturalmente"`
	StopReason         StopReason            `json:"motivo_encerramento,omitempty"`
	OpeningFallback    bool                  `json:"abertura_fallback,omitempty"`
	Conversation       []ConversationMessage `json:"conversa"`
	CustomerData       *CustomerData         `json:"dados_cliente_usados,omitempty"`
	Evaluation         *Evaluation           `json:"avaliacao,omitempty"`
}

// Finish stamps the end time and derives TotalTurns and DurationSeconds.
// A clock that goes backwards yields a zero duration.
func (r *TestResult) Finish(end time.Time) {
	r.EndTime = end
	r.TotalTurns = len(r.Conversation)
	r.DurationSeconds = Seconds(end.Sub(r.StartTime))
}

// Seconds converts d to seconds rounded to two decimals, clamped at zero.
func Seconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return math.Round(d.Seconds()*100) / 100
}

// ErrorRecord stands in for a TestResult when a (script, persona) cell failed
// before a conversation could be produced.
type ErrorRecord struct {
	TestID         string `json:"test_id"`
	TestScriptName string `json:"prompt_teste,omitempty"`
	PersonaID      string `json:"persona_id"`
	PersonaName    string `json:"persona_nome,omitempty"`
	Error          string `json:"erro"`
}

// CellResult holds exactly one of Result or Error.
type CellResult struct {
	Result *TestResult
	Error  *ErrorRecord
}

// IsError reports whether the cell failed.
func (c CellResult) IsError() bool {
	return c.Error != nil
}

// PersonaID returns the persona id of whichever record is set.
func (c CellResult) PersonaID() string {
	if c.Error != nil {
		return c.Error.PersonaID
	}
	if c.Result != nil {
		return c.Result.PersonaID
	}
	return ""
}

// TestID returns the test id of whichever record is set.
func (c CellResult) TestID() string {
	if c.Error != nil {
		return c.Error.TestID
	}
	if c.Result != nil {
		return c.Result.TestID
	}
	return ""
}

// MarshalJSON emits the inner record so a list of cells serializes as a flat
// list of results and error records.
func (c CellResult) MarshalJSON() ([]byte, error) {
	if c.Error != nil {
		return json.Marshal(c.Error)
	}
	return json.Marshal(c.Result)
}

// UnmarshalJSON distinguishes records by the presence of "erro".
func (c *CellResult) UnmarshalJSON(data []byte) error {
	var tag struct {
		Error *string `json:"erro"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Error != nil {
		var rec ErrorRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		*c = CellResult{Error: &rec}
		return nil
	}
	var res TestResult
	if err := json.Unmarshal(data, &res); err != nil {
		return err
	}
	*c = CellResult{Result: &res}
	return nil
}
