package main

import (
	"errors"
	"fmt"
	"testing"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestTestFailureError(t *testing.T) {
	err := &TestFailureError{
		Message: "batch completed with 1 of 3 conversation(s) failed",
	}

	assert.Equal(t, "batch completed with 1 of 3 conversation(s) failed", err.Error())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitSuccess},
		{"test failure", &TestFailureError{Message: "below gate"}, ExitTestFailed},
		{"wrapped test failure", fmt.Errorf("run: %w", &TestFailureError{Message: "below gate"}), ExitTestFailed},
		{"joined test failure", errors.Join(&TestFailureError{Message: "x"}, errors.New("more context")), ExitTestFailed},
		{"validation error", &qaerrors.ValidationError{Field: "mode", Message: "bad"}, ExitError},
		{"regular error", errors.New("config error"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
