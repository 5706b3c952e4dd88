// internal/survey/executor.go
package survey

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/heartofbedrock/AI-survey-solver/internal/config"
)

// Sentinel errors for the two expected non-fatal outcomes of the action
// stage. Callers treat both as degradations, not failures.
var (
	ErrNoMatch      = errors.New("chosen option not found among available options")
	ErrNextNotFound = errors.New("next control not found")
)

// Executor clicks the control whose label matches the model's answer, then
// moves the survey forward. Both stages degrade gracefully on their own.
type Executor struct {
	page   Page
	cfg    config.SurveyConfig
	logger *zap.Logger
}

// NewExecutor creates an executor bound to the given page.
func NewExecutor(p Page, cfg config.SurveyConfig, logger *zap.Logger) *Executor {
	return &Executor{
		page:   p,
		cfg:    cfg,
		logger: logger.Named("executor"),
	}
}

// ClickChosen scans the options in order and clicks the first one whose label
// matches the answer, then stops. Duplicate labels: first occurrence wins.
// When nothing matches, no control is clicked and ErrNoMatch is returned.
// A click that fails on a matched control is a real error and propagates.
func (e *Executor) ClickChosen(ctx context.Context, options []Option, answer string) (Option, error) {
	for _, opt := range options {
		if !labelsMatch(opt.Label, answer) {
			continue
		}
		if err := e.page.Highlight(ctx, opt.Selector, "green"); err != nil {
			e.logger.Debug("Could not highlight chosen option.", zap.Error(err))
		}
		if err := e.page.Click(ctx, opt.Selector); err != nil {
			return Option{}, fmt.Errorf("failed to click chosen option %q: %w", opt.Label, err)
		}
		e.logger.Info("Clicked on the chosen option.", zap.String("label", opt.Label))
		return opt, nil
	}

	e.logger.Warn("Model's chosen option was not found among the available options.",
		zap.String("answer", answer),
		zap.Int("option_count", len(options)),
	)
	return Option{}, ErrNoMatch
}

// ClickNext attempts to advance the survey by clicking the control labeled
// with the configured text. A missing control yields ErrNextNotFound.
func (e *Executor) ClickNext(ctx context.Context) error {
	xpath := fmt.Sprintf("//button[contains(text(), %q)]", e.cfg.NextButtonText)

	if err := e.page.Highlight(ctx, xpath, "purple"); err != nil {
		e.logger.Debug("Could not highlight next control.", zap.Error(err))
	}
	if err := e.page.ClickMatching(ctx, xpath); err != nil {
		e.logger.Warn("Could not find the next control.", zap.String("text", e.cfg.NextButtonText), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNextNotFound, err)
	}
	e.logger.Info("Clicked the next control.", zap.String("text", e.cfg.NextButtonText))
	return nil
}
