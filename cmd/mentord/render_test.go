package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
	"github.com/fyrsmithlabs/mentord/internal/tracelog"
)

func TestRenderEntry(t *testing.T) {
	e := tracelog.Entry{
		Timestamp: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Stage:     "Parser",
		Action:    "Identified topic: Calculus (Confidence: 95%)",
		Severity:  tracelog.SeveritySuccess,
	}
	got := renderEntry(e)
	assert.Contains(t, got, "15:04:05.000")
	assert.Contains(t, got, "Parser")
	assert.Contains(t, got, "Identified topic: Calculus")
}

func TestRenderProblem(t *testing.T) {
	got := renderProblem(&orchestrator.Problem{
		Text:       "Find x",
		Topic:      orchestrator.TopicAlgebra,
		Confidence: 0.42,
		Variables:  []string{"x", "y"},
	})
	assert.Contains(t, got, "Find x")
	assert.Contains(t, got, "Algebra")
	assert.Contains(t, got, "42%")
	assert.Contains(t, got, "x, y")
	assert.NotContains(t, got, "Constraints")
}

func TestRenderSolution(t *testing.T) {
	got := renderSolution(&orchestrator.Solution{
		FinalAnswer:      "x = 3",
		Steps:            []orchestrator.Step{{Number: 1, Explanation: "Take roots", Formula: "x^2 = 9"}},
		Sources:          []orchestrator.RetrievedSource{{Title: "Roots", Relevance: 0.5, Synthetic: true}},
		SimilarProblems:  []orchestrator.SimilarProblem{{ID: "s1", Text: "Find y", Difficulty: "Easy"}},
		Verification:     orchestrator.VerificationUncertain,
		GeneratedInsight: "Check the sign",
	})
	for _, want := range []string{"x = 3", "Take roots", "x^2 = 9", "Roots (50%)", "synthetic", "[s1] Find y", "uncertain", "Check the sign"} {
		assert.Contains(t, got, want)
	}
}
