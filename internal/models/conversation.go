package models

import "time"

// Role identifies who produced a conversation message.
type Role string

const (
	// RoleUser is the tester agent playing the persona.
	RoleUser Role = "user"
	// RoleAssistant is the subject agent under test.
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one entry of a conversation transcript.
type ConversationMessage struct {
	Turn      int       `json:"turno"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CustomerData is the synthetic customer identity handed to the tester.
type CustomerData struct {
	Name  string `json:"nome"`
	Phone string `json:"telefone"`
	Email string `json:"email,omitempty"`
}

// Field is a single labeled value of CustomerData.
type Field struct {
	Key   string
	Value string
}

// Fields returns the populated fields in presentation order.
func (c *CustomerData) Fields() []Field {
	if c == nil {
		return nil
	}
	var fields []Field
	if c.Name != "" {
		fields = append(fields, Field{Key: "nome", Value: c.Name})
	}
	if c.Phone != "" {
		fields = append(fields, Field{Key: "telefone", Value: c.Phone})
	}
	if c.Email != "" {
		fields = append(fields, Field{Key: "email", Value: c.Email})
	}
	return fields
}
