package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/agent"
	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/llm"
	"github.com/cpunion/dexbot/pkg/report"
	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/tools"
)

// newController wires the Gemini stage agents and the tool-calling
// executor over store.
func (a *app) newController(ctx context.Context, store dex.Store) (*research.Controller, func() error, error) {
	noop := func() error { return nil }
	if err := a.cfg.RequireLLM(); err != nil {
		return nil, noop, err
	}

	provider, err := llm.NewGeminiProvider(ctx, a.cfg.PlannerModel())
	if err != nil {
		return nil, noop, err
	}
	execModel, err := llm.NewADKModel(ctx, a.cfg.ExecutorModel())
	if err != nil {
		return nil, noop, err
	}
	allTools, err := tools.NewDexToolset(store, a.logger, a.searchOptions()...).AllTools()
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create tools: %w", err)
	}
	executor, err := agent.NewADKExecutor(agent.ExecutorConfig{
		Model:       execModel,
		Tools:       allTools,
		MaxRequests: a.cfg.LLM.MaxRequests,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, noop, err
	}

	var events research.EventLogger
	closeEvents := noop
	if path := a.cfg.Log.Events; path != "" {
		l, err := research.NewJSONLLogger(path)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create event log: %w", err)
		}
		events, closeEvents = l, l.Close
	}

	c, err := research.NewController(research.Options{
		Outliner:  agent.NewGeminiOutliner(provider, a.logger),
		Planner:   agent.NewGeminiPlanner(provider, a.logger),
		Executor:  executor,
		Reporter:  agent.NewGeminiReporter(provider, a.logger),
		Clarifier: agent.NewGeminiClarifier(provider, a.logger),
		Config:    a.cfg.Research,
		Logger:    a.logger,
		Events:    events,
	})
	if err != nil {
		_ = closeEvents()
		return nil, noop, err
	}
	a.logger.Info("research ready",
		zap.String("planner_model", provider.Model()),
		zap.String("executor_model", execModel.Name()))
	return c, closeEvents, nil
}

func (a *app) researchCmd() *cobra.Command {
	var (
		clarify   bool
		sessionID string
		htmlPath  string
		raw       bool
		width     int
	)
	cmd := &cobra.Command{
		Use:   "research [prompt]",
		Short: "Research a question and print the report",
		Long: `Runs a research session: outline, then plan/execute turns until the
planner is satisfied or the turn budget is spent, then a cited report.

With --clarify the request is first refined through follow-up questions
answered on stdin. Sessions are saved under <data.dir>/sessions and can be
resumed with --session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" && sessionID == "" {
				return errors.New("a prompt or --session is required")
			}

			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			c, closeController, err := a.newController(ctx, store)
			if err != nil {
				return err
			}
			defer closeController()

			sessions := research.NewFileSessionStore(a.cfg.SessionsDir())
			st := research.NewState()
			if sessionID != "" {
				if st, err = sessions.Load(sessionID); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if clarify && prompt != "" {
				refined, err := clarifyLoop(ctx, c, sessions, st, prompt, cmd.InOrStdin(), out)
				if err != nil {
					return err
				}
				prompt = refined
			}

			fmt.Fprintf(out, "Session %s\n", st.ID)
			runErr := c.Run(ctx, st, prompt)
			if err := sessions.Save(st); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			if runErr != nil {
				return fmt.Errorf("research failed (%s): %w", research.Classify(runErr), runErr)
			}

			if htmlPath != "" {
				page, err := report.HTML(st)
				if err != nil {
					return err
				}
				if err := os.WriteFile(htmlPath, page, 0644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}
			if raw {
				_, err = io.WriteString(out, report.Markdown(st))
				return err
			}
			rendered, err := report.Terminal(st, report.TerminalOptions{Width: width})
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, rendered)
			return err
		},
	}
	cmd.Flags().BoolVar(&clarify, "clarify", false, "Ask follow-up questions before researching")
	cmd.Flags().StringVar(&sessionID, "session", "", "Resume a saved session")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Also write the report as HTML to this path")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown instead of rendering it")
	cmd.Flags().IntVar(&width, "width", report.DefaultWidth, "Word wrap width for the rendered report")
	return cmd
}

// clarifyLoop runs clarification rounds, reading answers from in, until the
// clarifier returns a refined prompt.
func clarifyLoop(ctx context.Context, c *research.Controller, sessions research.SessionStore,
	st *research.State, message string, in io.Reader, out io.Writer) (string, error) {
	scanner := bufio.NewScanner(in)
	for {
		outcome, err := c.Clarify(ctx, st, message)
		if serr := sessions.Save(st); serr != nil {
			return "", fmt.Errorf("save session: %w", serr)
		}
		if err != nil {
			return "", err
		}

		switch o := outcome.(type) {
		case research.RefinedPrompt:
			fmt.Fprintf(out, "Refined prompt: %s\n\n", o.Prompt)
			return o.Prompt, nil
		case research.FollowUpQuestions:
			for _, q := range o.Questions {
				fmt.Fprintf(out, "? %s\n", q)
			}
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", errors.New("clarification aborted")
			}
			message = strings.TrimSpace(scanner.Text())
		}
	}
}
