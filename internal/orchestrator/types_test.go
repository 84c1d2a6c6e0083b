package orchestrator

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		wantErr string
	}{
		{"text", Input{Mode: ModeText, Text: "x^2 = 4"}, ""},
		{"blank text", Input{Mode: ModeText, Text: "  \n\t"}, "text"},
		{"image", Input{Mode: ModeImage, Data: []byte{1}, MIMEType: "image/png"}, ""},
		{"image without data", Input{Mode: ModeImage, MIMEType: "image/png"}, "data"},
		{"audio without mime", Input{Mode: ModeAudio, Data: []byte{1}}, "mimeType"},
		{"unknown mode", Input{Mode: "VIDEO", Text: "x"}, "mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Field)
		})
	}
}

func TestInput_Describe(t *testing.T) {
	assert.Equal(t, "x+1", Input{Mode: ModeText, Text: "x+1"}.describe())
	assert.Equal(t, "image/png (3 bytes)", Input{Mode: ModeImage, Data: []byte{1, 2, 3}, MIMEType: "image/png"}.describe())
}

func TestParseComplexity(t *testing.T) {
	c, ok := ParseComplexity("JEE-Advanced")
	assert.True(t, ok)
	assert.Equal(t, ComplexityAdvanced, c)

	c, ok = ParseComplexity("Medium")
	assert.True(t, ok)
	assert.Equal(t, ComplexityMedium, c)

	_, ok = ParseComplexity("Trivial")
	assert.False(t, ok)
}

func TestProblem_Validate(t *testing.T) {
	valid := Problem{Text: "x", Topic: TopicAlgebra, Confidence: 0.9, Complexity: ComplexityEasy}
	assert.NoError(t, valid.Validate())

	noTopic := valid
	noTopic.Topic = ""
	assert.NoError(t, noTopic.Validate())

	bad := valid
	bad.Confidence = 1.2
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Confidence = math.NaN()
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Topic = "Geometry"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Complexity = "Trivial"
	assert.Error(t, bad.Validate())
}

func TestProblem_Corrected(t *testing.T) {
	orig := Problem{Text: "x^2=4", Topic: TopicAlgebra, Confidence: 0.4, Variables: []string{"x"}}

	c := orig.Corrected("x^2=9")
	assert.Equal(t, "x^2=9", c.Text)
	assert.Equal(t, 1.0, c.Confidence)
	assert.Equal(t, TopicAlgebra, c.Topic)

	c.Variables[0] = "y"
	assert.Equal(t, "x^2=4", orig.Text)
	assert.Equal(t, 0.4, orig.Confidence)
	assert.Equal(t, []string{"x"}, orig.Variables)
}

func TestSolution_Validate(t *testing.T) {
	valid := Solution{
		FinalAnswer:  "2",
		Steps:        []Step{{Number: 1, Explanation: "a"}, {Number: 2, Explanation: "b"}},
		Sources:      []RetrievedSource{{Title: "t", Relevance: 0.5}},
		Verification: VerificationVerified,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Solution)
	}{
		{"unknown status", func(s *Solution) { s.Verification = "maybe" }},
		{"no steps", func(s *Solution) { s.Steps = nil }},
		{"first step not one", func(s *Solution) { s.Steps = []Step{{Number: 2}} }},
		{"non-increasing", func(s *Solution) { s.Steps = []Step{{Number: 1}, {Number: 1}} }},
		{"relevance out of range", func(s *Solution) { s.Sources = []RetrievedSource{{Relevance: -0.1}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid.clone()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestSolution_JSONFieldNames(t *testing.T) {
	sol := Solution{
		FinalAnswer:      "42",
		Steps:            []Step{{Number: 1, Explanation: "e"}},
		Sources:          []RetrievedSource{{Title: "t", Synthetic: true}},
		SimilarProblems:  []SimilarProblem{{ID: "s1", Text: "p"}},
		Verification:     VerificationVerified,
		GeneratedInsight: "tip",
	}
	data, err := json.Marshal(sol)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"finalAnswer", "steps", "ragSources", "similarProblems", "verificationStatus", "generatedMemory"} {
		assert.Contains(t, raw, key)
	}
}

func TestTopic_Valid(t *testing.T) {
	for _, topic := range Topics() {
		assert.True(t, topic.Valid(), topic)
	}
	assert.False(t, Topic("Geometry").Valid())
	assert.True(t, StageCompleted.Terminal())
	assert.False(t, StageAwaitingReview.Terminal())
}
