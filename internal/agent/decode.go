package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
)

var validate = validator.New()

// CleanJSON strips markdown code fences and anything outside the outermost
// braces. An empty reply becomes "{}".
func CleanJSON(text string) string {
	if text == "" {
		return "{}"
	}
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")

	first := strings.Index(clean, "{")
	last := strings.LastIndex(clean, "}")
	if first != -1 && last > first {
		clean = clean[first : last+1]
	}
	return strings.TrimSpace(clean)
}

// decode cleans, unmarshals and validates a model reply into v.
func decode(agentName, text string, v any) error {
	if strings.TrimSpace(text) == "" {
		return orchestrator.NewAgentError(agentName, orchestrator.KindFormat, errors.New("empty response"))
	}
	if err := json.Unmarshal([]byte(CleanJSON(text)), v); err != nil {
		return orchestrator.NewAgentError(agentName, orchestrator.KindFormat, fmt.Errorf("decode response: %w", err))
	}
	if err := validate.Struct(v); err != nil {
		return orchestrator.NewAgentError(agentName, orchestrator.KindFormat, fmt.Errorf("validate response: %w", err))
	}
	return nil
}

type problemPayload struct {
	ParsedText  string   `json:"parsedText"`
	Topic       string   `json:"topic"`
	Subtopic    string   `json:"subtopic"`
	Confidence  *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	Variables   []string `json:"variables"`
	Constraints []string `json:"constraints"`
	Complexity  string   `json:"complexity"`
}

// problem converts the payload. Topic and complexity labels outside the
// supported sets are dropped so the confidence gate decides what happens next.
func (p problemPayload) problem() orchestrator.Problem {
	complexity, _ := orchestrator.ParseComplexity(strings.TrimSpace(p.Complexity))
	return orchestrator.Problem{
		Text:        p.ParsedText,
		Topic:       normalizeTopic(p.Topic),
		Subtopic:    p.Subtopic,
		Confidence:  *p.Confidence,
		Variables:   p.Variables,
		Constraints: p.Constraints,
		Complexity:  complexity,
	}
}

func normalizeTopic(s string) orchestrator.Topic {
	s = strings.TrimSpace(s)
	for _, t := range orchestrator.Topics() {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return ""
}

type solutionPayload struct {
	FinalAnswer     string           `json:"finalAnswer" validate:"required"`
	Verification    string           `json:"verificationStatus" validate:"required,oneof=verified uncertain failed"`
	Steps           []stepPayload    `json:"steps" validate:"required,min=1,dive"`
	Sources         []sourcePayload  `json:"ragSources" validate:"omitempty,dive"`
	SimilarProblems []similarPayload `json:"similarProblems" validate:"omitempty,dive"`
	GeneratedMemory string           `json:"generatedMemory"`
}

type stepPayload struct {
	StepNumber  int    `json:"stepNumber" validate:"gte=1"`
	Explanation string `json:"explanation" validate:"required"`
	Formula     string `json:"formula"`
}

type sourcePayload struct {
	Title     string  `json:"title" validate:"required"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance" validate:"gte=0,lte=1"`
	Synthetic bool    `json:"isSynthetic"`
}

type similarPayload struct {
	ID          string `json:"id" validate:"required"`
	ProblemText string `json:"problemText" validate:"required"`
	Topic       string `json:"topic"`
	Difficulty  string `json:"difficulty"`
}

func (p solutionPayload) solution() orchestrator.Solution {
	sol := orchestrator.Solution{
		FinalAnswer:      p.FinalAnswer,
		Verification:     orchestrator.VerificationStatus(p.Verification),
		GeneratedInsight: strings.TrimSpace(p.GeneratedMemory),
		Steps:            make([]orchestrator.Step, len(p.Steps)),
		Sources:          make([]orchestrator.RetrievedSource, len(p.Sources)),
	}
	for i, s := range p.Steps {
		sol.Steps[i] = orchestrator.Step{Number: s.StepNumber, Explanation: s.Explanation, Formula: s.Formula}
	}
	for i, s := range p.Sources {
		sol.Sources[i] = orchestrator.RetrievedSource{Title: s.Title, Snippet: s.Snippet, Relevance: s.Relevance, Synthetic: s.Synthetic}
	}
	for _, s := range p.SimilarProblems {
		sol.SimilarProblems = append(sol.SimilarProblems, orchestrator.SimilarProblem{
			ID: s.ID, Text: s.ProblemText, Topic: s.Topic, Difficulty: s.Difficulty,
		})
	}
	return sol
}
