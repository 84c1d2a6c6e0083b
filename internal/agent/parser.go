package agent

import (
	"context"

	"github.com/fyrsmithlabs/mentord/internal/logging"
	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
	"go.uber.org/zap"
)

const parserAgentName = "parser"

// DefaultParserModel is used when no parser model is configured.
const DefaultParserModel = "gemini-3-flash-preview"

// Parser is the Gemini-backed orchestrator.ParserAgent.
type Parser struct {
	gen    Generator
	model  string
	logger *logging.Logger
}

var _ orchestrator.ParserAgent = (*Parser)(nil)

// NewParser creates a Parser. An empty model selects DefaultParserModel.
func NewParser(gen Generator, model string, logger *logging.Logger) *Parser {
	if model == "" {
		model = DefaultParserModel
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Parser{gen: gen, model: model, logger: logger.Named("parser")}
}

// Parse extracts a structured Problem from text, image or audio input.
func (p *Parser) Parse(ctx context.Context, in orchestrator.Input) (orchestrator.Problem, error) {
	text, err := p.gen.GenerateJSON(ctx, p.model, parserParts(in))
	if err != nil {
		ae := classify(parserAgentName, err)
		p.logger.Warn(ctx, "parser model call failed", zap.String("kind", string(ae.Kind)), zap.Error(err))
		return orchestrator.Problem{}, ae
	}

	p.logger.Trace(ctx, "parser model reply", zap.String("model", p.model), zap.String("reply", text))

	var payload problemPayload
	if err := decode(parserAgentName, text, &payload); err != nil {
		p.logger.Warn(ctx, "parser response rejected", zap.Error(err))
		return orchestrator.Problem{}, err
	}

	problem := payload.problem()
	p.logger.Debug(ctx, "problem parsed",
		zap.String("model", p.model),
		zap.String("topic", string(problem.Topic)),
		zap.Float64("confidence", problem.Confidence),
	)
	return problem, nil
}
