// Mentord is a multimodal math mentor: it parses a problem from text, an image
// or audio, asks for human review when the parse is uncertain, and solves it
// with explanations adapted to the learner.
//
// Usage:
//
//	# Serve the HTTP control surface
//	mentord serve
//
//	# Solve one problem in the terminal
//	mentord solve "Integrate x^2 from 0 to 1"
//	mentord solve --mode image --file problem.png
//
// Configuration is loaded from ~/.config/mentord/config.yaml and MENTORD_*
// environment variables. GEMINI_API_KEY is used when no API key is configured.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/mentord/internal/agent"
	"github.com/fyrsmithlabs/mentord/internal/config"
	"github.com/fyrsmithlabs/mentord/internal/learner"
	"github.com/fyrsmithlabs/mentord/internal/logging"
	"github.com/fyrsmithlabs/mentord/internal/memory"
	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mentord",
		Short: "Multimodal math mentor with human review and learning memory",
		Long: `mentord parses math problems from text, images or audio, routes uncertain
parses to a human for review, and solves them with step-by-step explanations
adapted to the learner's mastery and past corrections.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/mentord/config.yaml)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSolveCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mentord by Fyrsmith Labs\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}

// initLogger builds the logger from the logging section, writing to w.
func initLogger(cfg *config.Config, w zapcore.WriteSyncer) (*logging.Logger, error) {
	logCfg, err := logging.FromAppConfig(cfg.Logging)
	if err != nil {
		return nil, err
	}
	logCfg.Fields["version"] = version
	return logging.NewLoggerWithWriter(logCfg, w)
}

// pipeline holds the collaborators shared by serve and solve.
type pipeline struct {
	parser  orchestrator.ParserAgent
	solver  orchestrator.SolverAgent
	store   *memory.Store
	profile *learner.Profile
	level   orchestrator.ExplanationLevel
}

// initPipeline builds the Gemini agents and the seeded learner state.
func initPipeline(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pipeline, error) {
	gen, err := agent.NewGenAIGenerator(ctx, cfg.Agents)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	return newPipeline(gen, cfg, logger)
}

func newPipeline(gen agent.Generator, cfg *config.Config, logger *logging.Logger) (*pipeline, error) {
	store, err := memory.FromConfig(cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("failed to seed learning memory: %w", err)
	}
	profile, err := learner.FromConfig(cfg.Learner)
	if err != nil {
		return nil, fmt.Errorf("failed to build learner profile: %w", err)
	}
	return &pipeline{
		parser:  agent.NewParser(gen, cfg.Agents.ParserModel, logger),
		solver:  agent.NewSolver(gen, cfg.Agents.SolverModel, logger),
		store:   store,
		profile: profile,
		level:   orchestrator.ExplanationLevel(cfg.Learner.ExplanationLevel),
	}, nil
}
