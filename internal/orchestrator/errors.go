package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is wrapped by every ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSuperseded is returned when a collaborator result arrives after the
	// session it belongs to was replaced by a submit, reset or cancel.
	ErrSuperseded = errors.New("result superseded by a newer session")

	// ErrSimilarNotFound is returned by SubmitSimilar for an unknown id.
	ErrSimilarNotFound = errors.New("similar problem not found")
)

// ValidationError reports an empty or malformed submission or review text.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// AgentErrorKind classifies collaborator failures.
type AgentErrorKind string

const (
	KindNotFound    AgentErrorKind = "not_found"
	KindRateLimited AgentErrorKind = "rate_limited"
	KindSafety      AgentErrorKind = "safety"
	KindFormat      AgentErrorKind = "format"
	KindTransport   AgentErrorKind = "transport"
)

// Message returns the user-facing message for the kind.
func (k AgentErrorKind) Message() string {
	switch k {
	case KindNotFound:
		return "Model not found (Check API Key/Region)"
	case KindRateLimited:
		return "Too many requests. Please wait."
	case KindSafety:
		return "Content flagged by safety filters."
	case KindFormat:
		return "The model returned a response that could not be understood."
	default:
		return "Could not reach the reasoning service."
	}
}

// AgentError is a ParserAgent or SolverAgent failure.
type AgentError struct {
	Agent   string // "parser" or "solver"
	Kind    AgentErrorKind
	Message string // user-facing
	Err     error
}

// NewAgentError creates an AgentError with the kind's default message.
func NewAgentError(agent string, kind AgentErrorKind, err error) *AgentError {
	return &AgentError{Agent: agent, Kind: kind, Message: kind.Message(), Err: err}
}

func (e *AgentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s agent (%s): %s: %v", e.Agent, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s agent (%s): %s", e.Agent, e.Kind, e.Message)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// StateError reports an operation attempted from a stage that does not allow it.
type StateError struct {
	Op    string
	Stage Stage
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while session is %s", e.Op, e.Stage)
}

// asAgentError normalizes any collaborator failure to *AgentError.
func asAgentError(agent string, err error) *AgentError {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae
	}
	return &AgentError{Agent: agent, Kind: KindTransport, Message: err.Error(), Err: err}
}

// UserMessage returns the text shown to the learner for err.
func UserMessage(err error) string {
	var ae *AgentError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
