package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Persona is a fixed synthetic-customer behavioral profile. JSON field names
// follow the catalog file format.
type Persona struct {
	ID                string   `json:"id"`
	Name              string   `json:"nome"`
	Personality       string   `json:"personalidade,omitempty"`
	StressLevel       string   `json:"nivel_stress,omitempty"`
	CommunicationTone string   `json:"tom_comunicacao,omitempty"`
	Behaviors         []string `json:"comportamentos,omitempty"`
	LanguagePatterns  []string `json:"padroes_linguagem,omitempty"`
	TriggerBehaviors  Triggers `json:"triggers_comportamento,omitempty"`
}

// PersonaSummary is the short listing view of a persona.
type PersonaSummary struct {
	ID          string `json:"id"`
	Name        string `json:"nome"`
	Personality string `json:"personalidade"`
	StressLevel string `json:"nivel_stress"`
}

// Summary returns the listing view of p.
func (p *Persona) Summary() PersonaSummary {
	return PersonaSummary{
		ID:          p.ID,
		Name:        p.Name,
		Personality: p.Personality,
		StressLevel: p.StressLevel,
	}
}

// Trigger maps a conversation moment to the behavior expected at that moment.
type Trigger struct {
	Moment   string
	Behavior string
}

// Triggers is an ordered moment → behavior mapping. It is encoded as a JSON
// object and keeps the key order of the source document.
type Triggers []Trigger

// UnmarshalJSON decodes a JSON object, preserving key order. Non-string
// values are kept in their compact JSON form. A repeated key keeps its first
// position and its last value.
func (t *Triggers) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("triggers_comportamento: expected object, got %v", tok)
	}

	var out Triggers
	index := map[string]int{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("triggers_comportamento: expected string key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("triggers_comportamento[%s]: %w", key, err)
		}

		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			value = string(raw)
		}

		if i, seen := index[key]; seen {
			out[i].Behavior = value
			continue
		}
		index[key] = len(out)
		out = append(out, Trigger{Moment: key, Behavior: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = out
	return nil
}

// MarshalJSON encodes t as a JSON object in list order.
func (t Triggers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tr := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(tr.Moment)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(tr.Behavior)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
