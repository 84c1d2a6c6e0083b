package agent

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
)

const (
	textLeadIn  = "Analyze the following math problem text:"
	imageLeadIn = "Analyze this image. Extract the math problem exactly. Return JSON format."
	audioLeadIn = "Listen to this audio. It contains a math problem. Transcribe the math problem exactly. Normalize terms like 'root' to symbols. Return a valid JSON response."
)

const parserSchemaPrompt = `You are an expert Math Parser Agent for JEE level problems.
Analyze the input and output a STRICT JSON object with this schema:
{
  "parsedText": "The clean mathematical statement",
  "topic": "Algebra | Calculus | Probability | Linear Algebra",
  "subtopic": "Specific subtopic",
  "confidence": 0.0 to 1.0,
  "variables": ["list", "of", "variables"],
  "constraints": ["list", "of", "constraints"],
  "complexity": "Easy | Medium | Hard | JEE-Advanced"
}
If the input is gibberish or not math, set confidence to 0.
IMPORTANT: Return ONLY the JSON object. Do not add markdown formatting or explanations.`

const solverSchemaPrompt = `Perform the following:
1. Plan the solution.
2. Retrieve relevant JEE formulas (simulate RAG). Prioritize the Learning Memory provided above.
3. Solve step-by-step.
4. Verify the answer.
5. Retrieve/Generate 2-3 similar past JEE problems.
6. [Dynamic Memory]: If this problem uses a unique trick or if the user frequently errs here, generate a brief "insight" string to save to Learning Memory.

JSON Schema:
{
  "finalAnswer": "The final concise answer",
  "verificationStatus": "verified" | "uncertain" | "failed",
  "steps": [
    { "stepNumber": 1, "explanation": "...", "formula": "latex_if_needed" }
  ],
  "ragSources": [
    { "title": "Name of Theorem/Formula", "snippet": "Definition...", "relevance": 0.95, "isSynthetic": false }
  ],
  "similarProblems": [
    { "id": "1", "problemText": "Similar problem statement", "topic": "Calculus", "difficulty": "Medium" }
  ],
  "generatedMemory": "Optional short string of new insight to learn, e.g., 'Use Log properties for exponential limits'"
}`

// Mastery bounds for adaptive instructions.
const (
	strugglingBelow = 40
	advancedAbove   = 80
)

// parserParts builds the parser request. Media goes before the instructions.
func parserParts(in orchestrator.Input) []Part {
	var parts []Part
	switch in.Mode {
	case orchestrator.ModeImage:
		parts = append(parts, MediaPart(in.Data, in.MIMEType), TextPart(imageLeadIn))
	case orchestrator.ModeAudio:
		parts = append(parts, MediaPart(in.Data, in.MIMEType), TextPart(audioLeadIn))
	default:
		parts = append(parts, TextPart(textLeadIn), TextPart(in.Text))
	}
	return append(parts, TextPart(parserSchemaPrompt))
}

// solverPrompt builds the single text prompt for the solver.
func solverPrompt(req orchestrator.SolveRequest) string {
	p := req.Problem
	topic := string(p.Topic)
	mastery := req.Progress.Mastery(topic)

	mistakes := "None recorded"
	if len(req.Progress.CommonMistakes) > 0 {
		mistakes = strings.Join(req.Progress.CommonMistakes, ", ")
	}

	var b strings.Builder
	b.WriteString("You are a Multi-Agent Math Mentor System composed of Solver, Verifier, RAG, and Explainer Agents.\n\n")
	fmt.Fprintf(&b, "Problem: %s\n", p.Text)
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Constraints: %s\n\n", strings.Join(p.Constraints, ", "))

	if req.Level == orchestrator.LevelBeginner {
		b.WriteString("Provide extremely detailed, beginner-friendly explanations.\n\n")
	} else {
		b.WriteString("Provide concise, advanced explanations.\n\n")
	}

	b.WriteString("USER PROFILE:\n")
	fmt.Fprintf(&b, "- Topic: %s\n", topic)
	fmt.Fprintf(&b, "- Mastery Level: %d%%\n", mastery)
	fmt.Fprintf(&b, "- Known Weaknesses: %s\n\n", mistakes)

	b.WriteString("ADAPTIVE INSTRUCTION:\n")
	fmt.Fprintf(&b, "Combine the manual setting (%s) with the User Profile.\n", req.Level)
	switch {
	case mastery < strugglingBelow:
		b.WriteString("User is struggling. Simplify jargon, verify every algebra step, and warn about common mistakes.\n")
	case mastery > advancedAbove:
		b.WriteString("User is advanced. Focus on 'Why' rather than 'How', and skip trivial arithmetic.\n")
	}

	b.WriteString("\nLEARNING MEMORY (RAG PRIORITY):\n")
	b.WriteString("Prioritize these successful patterns from past interactions:\n")
	if len(req.Memory) == 0 {
		b.WriteString("No specific past memory for this topic.\n")
	}
	for _, m := range req.Memory {
		fmt.Fprintf(&b, "- [Proven Strategy]: %s (Success Rate: %.0f%%)\n", m.Insight, m.SuccessRate*100)
	}

	b.WriteString("\n")
	b.WriteString(solverSchemaPrompt)
	return b.String()
}
