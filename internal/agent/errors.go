package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
)

// classify maps an upstream failure to an AgentError by its status text.
func classify(agentName string, err error) *orchestrator.AgentError {
	var ae *orchestrator.AgentError
	if errors.As(err, &ae) {
		return ae
	}

	msg := err.Error()
	var kind orchestrator.AgentErrorKind
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = orchestrator.KindTransport
	case strings.Contains(msg, "404"), strings.Contains(msg, "NOT_FOUND"):
		kind = orchestrator.KindNotFound
	case strings.Contains(msg, "429"), strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		kind = orchestrator.KindRateLimited
	case strings.Contains(msg, "SAFETY"):
		kind = orchestrator.KindSafety
	default:
		kind = orchestrator.KindTransport
	}
	return orchestrator.NewAgentError(agentName, kind, err)
}
