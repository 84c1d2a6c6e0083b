package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
	"github.com/fyrsmithlabs/mentord/internal/tracelog"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Bold(true).
			Width(15)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	answerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("46")).
			Padding(0, 2)
)

func severityStyle(s tracelog.Severity) lipgloss.Style {
	switch s {
	case tracelog.SeveritySuccess:
		return successStyle
	case tracelog.SeverityWarning:
		return warningStyle
	case tracelog.SeverityError:
		return errorStyle
	default:
		return infoStyle
	}
}

// renderEntry formats one trace entry as a single line.
func renderEntry(e tracelog.Entry) string {
	return fmt.Sprintf("%s %s %s",
		dimStyle.Render(e.Timestamp.Format("15:04:05.000")),
		stageStyle.Render(e.Stage),
		severityStyle(e.Severity).Render(e.Action),
	)
}

func renderProblem(p *orchestrator.Problem) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Parsed problem") + "\n")
	field := func(label, value string) {
		if value != "" {
			b.WriteString(labelStyle.Render(label+": ") + valueStyle.Render(value) + "\n")
		}
	}
	field("Text", p.Text)
	field("Topic", string(p.Topic))
	field("Subtopic", p.Subtopic)
	field("Confidence", fmt.Sprintf("%.0f%%", p.Confidence*100))
	field("Complexity", string(p.Complexity))
	field("Variables", strings.Join(p.Variables, ", "))
	field("Constraints", strings.Join(p.Constraints, ", "))
	return b.String()
}

func renderSolution(sol *orchestrator.Solution) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Solution") + "\n")
	for _, step := range sol.Steps {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%d. ", step.Number)) + step.Explanation + "\n")
		if step.Formula != "" {
			b.WriteString("   " + dimStyle.Render(step.Formula) + "\n")
		}
	}

	b.WriteString(answerStyle.Render(valueStyle.Render(sol.FinalAnswer)) + "\n")
	status := successStyle
	if sol.Verification != orchestrator.VerificationVerified {
		status = warningStyle
	}
	b.WriteString(labelStyle.Render("Verification: ") + status.Render(string(sol.Verification)) + "\n")

	if len(sol.Sources) > 0 {
		b.WriteString(sectionStyle.Render("Sources") + "\n")
		for _, src := range sol.Sources {
			line := fmt.Sprintf("- %s (%.0f%%)", src.Title, src.Relevance*100)
			if src.Synthetic {
				line += dimStyle.Render(" synthetic")
			}
			b.WriteString(line + "\n")
		}
	}

	if len(sol.SimilarProblems) > 0 {
		b.WriteString(sectionStyle.Render("Similar problems") + "\n")
		for _, sp := range sol.SimilarProblems {
			b.WriteString(fmt.Sprintf("[%s] %s %s\n", sp.ID, sp.Text, dimStyle.Render(sp.Difficulty)))
		}
	}

	if sol.GeneratedInsight != "" {
		b.WriteString(sectionStyle.Render("Learned") + "\n" + sol.GeneratedInsight + "\n")
	}
	return b.String()
}
