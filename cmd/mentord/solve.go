package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/mentord/internal/config"
	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
	"github.com/fyrsmithlabs/mentord/internal/tracelog"
)

// cancelWord aborts a pending review in the interactive prompt.
const cancelWord = "cancel"

type solveOptions struct {
	mode     string
	file     string
	mimeType string
	level    string
}

func newSolveCmd() *cobra.Command {
	opts := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve [problem text]",
		Short: "Solve one problem in the terminal",
		Long: `Solve one math problem and print the agent trace and solution.

Text problems are read from the arguments, or from stdin when no arguments are
given. Image and audio problems are read from --file. When the parse is
uncertain you are asked to confirm or correct the problem text.

Examples:
  # Solve a text problem
  mentord solve "Find the derivative of sin(x)^2"

  # Solve from a photo
  mentord solve --mode image --file homework.jpg

  # Advanced explanations
  mentord solve --level Advanced "Evaluate the limit of (1+1/n)^n"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "text", "input mode: text, image or audio")
	cmd.Flags().StringVar(&opts.file, "file", "", "media file for image or audio mode")
	cmd.Flags().StringVar(&opts.mimeType, "mime", "", "media MIME type (detected from the file when empty)")
	cmd.Flags().StringVar(&opts.level, "level", "", "explanation level: Beginner or Advanced (default from config)")
	return cmd
}

func runSolve(cmd *cobra.Command, opts *solveOptions, args []string) error {
	ctx := cmd.Context()
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	input, err := buildInput(opts, args, in)
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := initLogger(cfg, zapcore.AddSync(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	p, err := initPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if opts.level != "" {
		p.level = orchestrator.ExplanationLevel(opts.level)
	}

	orch, err := orchestrator.New(p.parser, p.solver, p.store, p.profile,
		orchestrator.WithLogger(logger.Named("orchestrator")),
		orchestrator.WithExplanationLevel(p.level),
		orchestrator.WithObserver(func(e tracelog.Entry) {
			fmt.Fprintln(out, renderEntry(e))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return solveInteractive(ctx, orch, input, in, out)
}

// solveInteractive submits input and walks the learner through review when needed.
func solveInteractive(ctx context.Context, orch *orchestrator.Orchestrator, input orchestrator.Input, in *bufio.Reader, out io.Writer) error {
	fmt.Fprintln(out, headerStyle.Render("mentord"))

	st, err := orch.Submit(ctx, input)
	if err != nil {
		return errors.New(orchestrator.UserMessage(err))
	}

	if st.Stage == orchestrator.StageAwaitingReview {
		fmt.Fprint(out, renderProblem(st.Problem))
		fmt.Fprintf(out, "\nConfirm with Enter, type a corrected problem, or %q to abort: ", cancelWord)

		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read review: %w", err)
		}
		line = strings.TrimSpace(line)

		if line == cancelWord {
			if _, err := orch.CancelReview(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, dimStyle.Render("Review cancelled."))
			return nil
		}
		if line == "" {
			line = st.Problem.Text
		}

		st, err = orch.ResolveReview(ctx, line)
		if err != nil {
			return errors.New(orchestrator.UserMessage(err))
		}
	}

	if st.Solution != nil {
		fmt.Fprint(out, renderSolution(st.Solution))
	}
	return nil
}

// buildInput reads the problem for the selected mode.
func buildInput(opts *solveOptions, args []string, stdin io.Reader) (orchestrator.Input, error) {
	mode := orchestrator.Mode(strings.ToUpper(opts.mode))
	switch mode {
	case orchestrator.ModeText:
		text := strings.Join(args, " ")
		if text == "" {
			line, err := bufio.NewReader(stdin).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return orchestrator.Input{}, fmt.Errorf("failed to read problem: %w", err)
			}
			text = strings.TrimSpace(line)
		}
		return orchestrator.Input{Mode: mode, Text: text}, nil

	case orchestrator.ModeImage, orchestrator.ModeAudio:
		if opts.file == "" {
			return orchestrator.Input{}, fmt.Errorf("--file is required for %s mode", opts.mode)
		}
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return orchestrator.Input{}, fmt.Errorf("failed to read %s: %w", opts.file, err)
		}
		mimeType := opts.mimeType
		if mimeType == "" {
			mimeType = detectMIME(opts.file, data)
		}
		return orchestrator.Input{Mode: mode, Data: data, MIMEType: mimeType}, nil
	}
	return orchestrator.Input{}, fmt.Errorf("unknown mode %q (want text, image or audio)", opts.mode)
}

func detectMIME(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
