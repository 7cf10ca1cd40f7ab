package mock

import (
	"context"
	"strings"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default deterministic behavior.
	CompleteFunc func(ctx context.Context, instructions, input string) (string, error)

	callCount        int
	lastInstructions string
	lastInput        string
}

// NewMockCompleter creates a mock completer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete records the call and returns a deterministic response.
// Default behavior echoes the first line of the input, which is enough for
// pipeline tests that only care that some answer came back.
func (m *MockCompleter) Complete(ctx context.Context, instructions, input string) (string, error) {
	m.callCount++
	m.lastInstructions = instructions
	m.lastInput = input

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, instructions, input)
	}

	line := input
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line), nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// LastInstructions returns the instructions passed to the most recent call.
func (m *MockCompleter) LastInstructions() string {
	return m.lastInstructions
}

// LastInput returns the input passed to the most recent call.
func (m *MockCompleter) LastInput() string {
	return m.lastInput
}

// Reset clears the call count, recorded arguments, and custom functions.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.lastInstructions = ""
	m.lastInput = ""
	m.CompleteFunc = nil
}
