package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // Session met the approval gate
	ExitTestFailed = 1 // Session ran but fell below the gate, or cells failed
	ExitError      = 2 // Configuration or runtime error
)

// TestFailureError indicates that the session ran to completion but its
// results did not meet the requested bar.
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return e.Message
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var testFailureErr *TestFailureError
	if errors.As(err, &testFailureErr) {
		return ExitTestFailed
	}

	return ExitError
}
