package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/mentord/internal/config"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const responseMIMEType = "application/json"

// Part is one piece of model input: text, or inline media when Data is set.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// TextPart returns a text part.
func TextPart(s string) Part {
	return Part{Text: s}
}

// MediaPart returns an inline media part.
func MediaPart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// Generator sends parts to a model and returns its JSON text reply.
type Generator interface {
	GenerateJSON(ctx context.Context, model string, parts []Part) (string, error)
}

// GenAIGenerator is a Generator backed by the Gemini API.
type GenAIGenerator struct {
	client  *genai.Client
	limiter *rate.Limiter
}

// NewGenAIGenerator creates a Gemini client. A positive requestsPerMinute
// enables client-side rate limiting with the given burst.
func NewGenAIGenerator(ctx context.Context, cfg config.AgentsConfig) (*GenAIGenerator, error) {
	if !cfg.APIKey.IsSet() {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey.Value(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	g := &GenAIGenerator{client: client}
	if cfg.RequestsPerMinute > 0 {
		burst := max(cfg.Burst, 1)
		g.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), burst)
	}
	return g, nil
}

// GenerateJSON implements Generator.
func (g *GenAIGenerator) GenerateJSON(ctx context.Context, model string, parts []Part) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromParts(toGenAIParts(parts), genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseMIMEType: responseMIMEType},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked by SAFETY filter: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", errors.New("response stopped by SAFETY filter")
	}

	return resp.Text(), nil
}

func toGenAIParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Data != nil {
			out = append(out, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		out = append(out, genai.NewPartFromText(p.Text))
	}
	return out
}
