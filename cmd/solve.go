package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/heartofbedrock/AI-survey-solver/internal/browser"
	"github.com/heartofbedrock/AI-survey-solver/internal/config"
	"github.com/heartofbedrock/AI-survey-solver/internal/diagnostics"
	"github.com/heartofbedrock/AI-survey-solver/internal/llmclient"
	"github.com/heartofbedrock/AI-survey-solver/internal/observability"
	"github.com/heartofbedrock/AI-survey-solver/internal/overlay"
	"github.com/heartofbedrock/AI-survey-solver/internal/solver"
	"github.com/heartofbedrock/AI-survey-solver/internal/survey"
)

// errorPause keeps the overlay error message visible before teardown.
const errorPause = 3 * time.Second

// newSolveCmd creates and configures the `solve` command.
func newSolveCmd() *cobra.Command {
	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Answers the configured survey question in one browser run",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind only flags the user actually set, so unset flags don't
			// shadow config file and environment values.
			bindings := map[string]string{
				"url":      "survey.url",
				"headless": "browser.headless",
				"provider": "llm.provider",
				"model":    "llm.model",
			}
			for flag, key := range bindings {
				if cmd.Flags().Changed(flag) {
					if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
						return err
					}
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Context passed from main.go is signal-aware.
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			// Pre-flight: the API key must exist before any browser work
			// begins. Its absence is the one failure that exits nonzero.
			if cfg.LLM.APIKey == "" {
				return fmt.Errorf("LLM API key not found; set OPENAI_API_KEY (or GEMINI_API_KEY) in the environment or a .env file")
			}

			llm, err := llmclient.New(ctx, cfg.LLM, logger)
			if err != nil {
				return err
			}

			runID := uuid.New().String()
			log := logger.With(zap.String("run_id", runID))
			log.Info("Starting run",
				zap.String("url", cfg.Survey.URL),
				zap.String("provider", string(cfg.LLM.Provider)),
				zap.String("model", cfg.LLM.Model),
			)

			session, err := browser.NewSession(ctx, cfg.Browser, log)
			if err != nil {
				return fmt.Errorf("failed to start browser session: %w", err)
			}
			// The browser is released on every exit path; Close is idempotent.
			defer func() {
				if err := session.Close(); err != nil {
					log.Warn("Error during browser session close.", zap.Error(err))
				}
			}()

			ov := overlay.New(session, log)
			s := solver.New(
				cfg,
				log,
				session,
				ov,
				survey.NewExtractor(session, cfg.Survey, log),
				survey.NewExecutor(session, cfg.Survey, log),
				llm,
				diagnostics.NewRecorder(session, cfg.Artifacts.ScreenshotDir, log),
			)

			if err := s.Run(ctx); err != nil {
				// The single top-level handler for workflow failures: log
				// with stack, surface the failure on the page, pause so a
				// human can see it, then tear down. The failure stays in the
				// logs rather than the exit code.
				log.Error("An error occurred during execution.", zap.Error(err))
				ov.Update(ctx, "An error occurred!")
				pause(ctx, errorPause)
				return nil
			}

			log.Info("Run finished.", zap.String("run_id", runID))
			return nil
		},
	}

	solveCmd.Flags().String("url", "", "Survey URL to answer. (Overrides config/env)")
	solveCmd.Flags().Bool("headless", false, "Run the browser without a visible window. (Overrides config/env)")
	solveCmd.Flags().String("provider", "", "Decision model provider, 'openai' or 'gemini'. (Overrides config/env)")
	solveCmd.Flags().String("model", "", "Decision model identifier. (Overrides config/env)")

	return solveCmd
}

// pause sleeps for d unless the context ends first.
func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
