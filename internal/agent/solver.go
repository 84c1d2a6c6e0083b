package agent

import (
	"context"

	"github.com/fyrsmithlabs/mentord/internal/logging"
	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
	"go.uber.org/zap"
)

const solverAgentName = "solver"

// DefaultSolverModel is used when no solver model is configured.
const DefaultSolverModel = "gemini-3-pro-preview"

// solverNotFoundMessage replaces the generic not-found message for the solver model.
const solverNotFoundMessage = "Solver Model not found"

// Solver is the Gemini-backed orchestrator.SolverAgent. One call plans,
// retrieves, solves, verifies and explains.
type Solver struct {
	gen    Generator
	model  string
	logger *logging.Logger
}

var _ orchestrator.SolverAgent = (*Solver)(nil)

// NewSolver creates a Solver. An empty model selects DefaultSolverModel.
func NewSolver(gen Generator, model string, logger *logging.Logger) *Solver {
	if model == "" {
		model = DefaultSolverModel
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Solver{gen: gen, model: model, logger: logger.Named("solver")}
}

// Solve produces a verified, explained Solution adapted to the learner.
func (s *Solver) Solve(ctx context.Context, req orchestrator.SolveRequest) (orchestrator.Solution, error) {
	prompt := solverPrompt(req)
	s.logger.Trace(ctx, "solver prompt", zap.String("model", s.model), zap.String("prompt", prompt))

	text, err := s.gen.GenerateJSON(ctx, s.model, []Part{TextPart(prompt)})
	if err != nil {
		ae := classify(solverAgentName, err)
		if ae.Kind == orchestrator.KindNotFound {
			ae.Message = solverNotFoundMessage
		}
		s.logger.Warn(ctx, "solver model call failed", zap.String("kind", string(ae.Kind)), zap.Error(err))
		return orchestrator.Solution{}, ae
	}

	s.logger.Trace(ctx, "solver model reply", zap.String("reply", text))

	var payload solutionPayload
	if err := decode(solverAgentName, text, &payload); err != nil {
		s.logger.Warn(ctx, "solver response rejected", zap.Error(err))
		return orchestrator.Solution{}, err
	}

	sol := payload.solution()
	s.logger.Debug(ctx, "solution generated",
		zap.String("model", s.model),
		zap.Int("steps", len(sol.Steps)),
		zap.String("verification", string(sol.Verification)),
	)
	return sol, nil
}
