package orchestrator

import (
	"context"
	"fmt"
	"slices"

	"github.com/fyrsmithlabs/mentord/internal/learner"
	"github.com/fyrsmithlabs/mentord/internal/memory"
)

// Stage is the pipeline position of a session.
type Stage string

const (
	StageIdle           Stage = "Idle"
	StageParsing        Stage = "Parsing"
	StageAwaitingReview Stage = "AwaitingReview"
	StageRouting        Stage = "Routing"
	StageSolving        Stage = "Solving"
	StageCompleted      Stage = "Completed"
	StageError          Stage = "Error"
)

// AllStages returns all stages in pipeline order.
func AllStages() []Stage {
	return []Stage{StageIdle, StageParsing, StageAwaitingReview, StageRouting, StageSolving, StageCompleted, StageError}
}

// Terminal reports whether the stage ends a session until the next submission.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageError
}

// Mode is the input modality.
type Mode string

const (
	ModeText  Mode = "TEXT"
	ModeImage Mode = "IMAGE"
	ModeAudio Mode = "AUDIO"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeText || m == ModeImage || m == ModeAudio
}

// Input is one submission. Text mode uses Text; image and audio modes use Data and MIMEType.
type Input struct {
	Mode     Mode   `json:"mode"`
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

// Validate checks that the input carries content for its mode.
func (in Input) Validate() error {
	switch in.Mode {
	case ModeText:
		if isBlank(in.Text) {
			return &ValidationError{Field: "text", Reason: "text input cannot be empty"}
		}
	case ModeImage, ModeAudio:
		if len(in.Data) == 0 {
			return &ValidationError{Field: "data", Reason: fmt.Sprintf("%s input requires captured data", in.Mode)}
		}
		if in.MIMEType == "" {
			return &ValidationError{Field: "mimeType", Reason: "MIME type is required for media input"}
		}
	default:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown input mode %q", in.Mode)}
	}
	return nil
}

// describe returns the raw-input reference recorded on the Problem.
func (in Input) describe() string {
	if in.Mode == ModeText {
		return in.Text
	}
	return fmt.Sprintf("%s (%d bytes)", in.MIMEType, len(in.Data))
}

// Topic is the closed set of supported subjects.
type Topic string

const (
	TopicAlgebra       Topic = "Algebra"
	TopicCalculus      Topic = "Calculus"
	TopicProbability   Topic = "Probability"
	TopicLinearAlgebra Topic = "Linear Algebra"
)

// Topics returns all supported topics.
func Topics() []Topic {
	return []Topic{TopicAlgebra, TopicCalculus, TopicProbability, TopicLinearAlgebra}
}

// Valid reports whether t is a supported topic.
func (t Topic) Valid() bool {
	return slices.Contains(Topics(), t)
}

// Complexity is the difficulty tier of a Problem.
type Complexity string

const (
	ComplexityEasy     Complexity = "Easy"
	ComplexityMedium   Complexity = "Medium"
	ComplexityHard     Complexity = "Hard"
	ComplexityAdvanced Complexity = "Advanced"
)

// ParseComplexity maps a label to a Complexity. "JEE-Advanced" is accepted as Advanced.
func ParseComplexity(s string) (Complexity, bool) {
	switch s {
	case "Easy":
		return ComplexityEasy, true
	case "Medium":
		return ComplexityMedium, true
	case "Hard":
		return ComplexityHard, true
	case "Advanced", "JEE-Advanced":
		return ComplexityAdvanced, true
	}
	return "", false
}

// Problem is the structured form of a submission, produced by the ParserAgent.
// It is never changed in place; Corrected returns a replacement.
type Problem struct {
	RawInput    string     `json:"rawInput"`
	Text        string     `json:"parsedText"`
	Topic       Topic      `json:"topic"`
	Subtopic    string     `json:"subtopic"`
	Confidence  float64    `json:"confidence"`
	Variables   []string   `json:"variables"`
	Constraints []string   `json:"constraints"`
	Complexity  Complexity `json:"complexity"`
}

// Validate checks the fields a ParserAgent must get right.
func (p Problem) Validate() error {
	if !unitInterval(p.Confidence) {
		return fmt.Errorf("confidence %v outside [0,1]", p.Confidence)
	}
	if p.Topic != "" && !p.Topic.Valid() {
		return fmt.Errorf("unsupported topic %q", p.Topic)
	}
	if p.Complexity != "" {
		if _, ok := ParseComplexity(string(p.Complexity)); !ok {
			return fmt.Errorf("unknown complexity %q", p.Complexity)
		}
	}
	return nil
}

// Corrected returns a human-verified copy with the given text and confidence 1.0.
func (p Problem) Corrected(text string) Problem {
	c := p.clone()
	c.Text = text
	c.Confidence = 1.0
	return c
}

func (p Problem) clone() Problem {
	p.Variables = slices.Clone(p.Variables)
	p.Constraints = slices.Clone(p.Constraints)
	return p
}

// VerificationStatus is the verifier's verdict on a Solution.
type VerificationStatus string

const (
	VerificationVerified  VerificationStatus = "verified"
	VerificationUncertain VerificationStatus = "uncertain"
	VerificationFailed    VerificationStatus = "failed"
)

// Valid reports whether v is a known status.
func (v VerificationStatus) Valid() bool {
	return v == VerificationVerified || v == VerificationUncertain || v == VerificationFailed
}

// Step is one numbered solution step.
type Step struct {
	Number      int    `json:"stepNumber"`
	Explanation string `json:"explanation"`
	Formula     string `json:"formula,omitempty"`
}

// RetrievedSource is a reference the solver drew on.
type RetrievedSource struct {
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance"`
	Synthetic bool    `json:"isSynthetic,omitempty"`
}

// SimilarProblem is a follow-up practice suggestion.
type SimilarProblem struct {
	ID         string `json:"id"`
	Text       string `json:"problemText"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

// Solution is the SolverAgent's output.
type Solution struct {
	FinalAnswer      string             `json:"finalAnswer"`
	Steps            []Step             `json:"steps"`
	Sources          []RetrievedSource  `json:"ragSources"`
	SimilarProblems  []SimilarProblem   `json:"similarProblems,omitempty"`
	Verification     VerificationStatus `json:"verificationStatus"`
	GeneratedInsight string             `json:"generatedMemory,omitempty"`
}

// Validate checks step numbering, source relevance and verification status.
func (s Solution) Validate() error {
	if !s.Verification.Valid() {
		return fmt.Errorf("unknown verification status %q", s.Verification)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("solution has no steps")
	}
	for i, step := range s.Steps {
		if i == 0 && step.Number != 1 {
			return fmt.Errorf("first step is numbered %d, want 1", step.Number)
		}
		if i > 0 && step.Number <= s.Steps[i-1].Number {
			return fmt.Errorf("step %d does not follow step %d", step.Number, s.Steps[i-1].Number)
		}
	}
	for _, src := range s.Sources {
		if !unitInterval(src.Relevance) {
			return fmt.Errorf("source %q relevance %v outside [0,1]", src.Title, src.Relevance)
		}
	}
	return nil
}

// unitInterval reports whether v is in [0,1]. NaN is not.
func unitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

// Similar returns the similar problem with id.
func (s Solution) Similar(id string) (SimilarProblem, bool) {
	for _, sp := range s.SimilarProblems {
		if sp.ID == id {
			return sp, true
		}
	}
	return SimilarProblem{}, false
}

func (s Solution) clone() Solution {
	s.Steps = slices.Clone(s.Steps)
	s.Sources = slices.Clone(s.Sources)
	s.SimilarProblems = slices.Clone(s.SimilarProblems)
	return s
}

// ExplanationLevel is the learner's preferred explanation depth.
type ExplanationLevel string

const (
	LevelBeginner ExplanationLevel = "Beginner"
	LevelAdvanced ExplanationLevel = "Advanced"
)

// Valid reports whether l is a known level.
func (l ExplanationLevel) Valid() bool {
	return l == LevelBeginner || l == LevelAdvanced
}

// SolveRequest is everything the SolverAgent receives.
type SolveRequest struct {
	Problem  Problem
	Level    ExplanationLevel
	Progress learner.Progress
	Memory   []memory.Item
}

// ParserAgent turns raw input into a Problem. Failures should be *AgentError.
type ParserAgent interface {
	Parse(ctx context.Context, in Input) (Problem, error)
}

// SolverAgent produces a Solution for a Problem. Failures should be *AgentError.
type SolverAgent interface {
	Solve(ctx context.Context, req SolveRequest) (Solution, error)
}
