package orchestrator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "text", Reason: "text input cannot be empty"}

	assert.Equal(t, "text input cannot be empty", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "text input cannot be empty", UserMessage(err))
}

func TestAgentErrorKind_Message(t *testing.T) {
	tests := []struct {
		kind AgentErrorKind
		want string
	}{
		{KindNotFound, "Model not found (Check API Key/Region)"},
		{KindRateLimited, "Too many requests. Please wait."},
		{KindSafety, "Content flagged by safety filters."},
		{KindFormat, "The model returned a response that could not be understood."},
		{KindTransport, "Could not reach the reasoning service."},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Message())
		})
	}
}

func TestAgentError(t *testing.T) {
	cause := errors.New("404 model gone")
	err := NewAgentError("solver", KindNotFound, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "solver agent (not_found)")
	assert.Equal(t, "Model not found (Check API Key/Region)", UserMessage(err))

	wrapped := fmt.Errorf("solve: %w", err)
	var ae *AgentError
	require.ErrorAs(t, wrapped, &ae)
	assert.Equal(t, KindNotFound, ae.Kind)
	assert.Equal(t, ae.Message, UserMessage(wrapped))
}

func TestAsAgentError(t *testing.T) {
	t.Run("passes through agent errors", func(t *testing.T) {
		orig := NewAgentError("parser", KindSafety, nil)
		assert.Same(t, orig, asAgentError("parser", fmt.Errorf("wrap: %w", orig)))
	})

	t.Run("wraps other errors as transport", func(t *testing.T) {
		ae := asAgentError("parser", errors.New("connection refused"))
		assert.Equal(t, KindTransport, ae.Kind)
		assert.Equal(t, "parser", ae.Agent)
		assert.Equal(t, "connection refused", ae.Message)
	})
}

func TestStateError(t *testing.T) {
	err := &StateError{Op: "resolve review", Stage: StageIdle}
	assert.Equal(t, "cannot resolve review while session is Idle", err.Error())
}
