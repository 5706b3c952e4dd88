// internal/solver/solver.go
package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/heartofbedrock/AI-survey-solver/internal/config"
	"github.com/heartofbedrock/AI-survey-solver/internal/llmclient"
	"github.com/heartofbedrock/AI-survey-solver/internal/survey"
)

// Page extends the survey page primitives with the navigation and scrolling
// the workflow itself drives.
type Page interface {
	survey.Page
	Navigate(ctx context.Context, url string) error
	Scroll(ctx context.Context, pixels int) error
}

// Overlay is the on-page status banner. All methods are best effort.
type Overlay interface {
	Show(ctx context.Context, text string)
	Update(ctx context.Context, text string)
	Remove(ctx context.Context)
}

// Extractor pulls the survey content out of the DOM.
type Extractor interface {
	RenderedHTML(ctx context.Context) (string, error)
	Question(ctx context.Context) (string, error)
	Options(ctx context.Context) ([]survey.Option, error)
}

// Executor performs the answer click and the forward click.
type Executor interface {
	ClickChosen(ctx context.Context, options []survey.Option, answer string) (survey.Option, error)
	ClickNext(ctx context.Context) error
}

// Recorder persists screenshot checkpoints.
type Recorder interface {
	Capture(ctx context.Context, label string) string
}

// Solver walks the single linear run: navigate, extract, decide, act. It owns
// no resources; the browser session is created and released by the caller.
type Solver struct {
	cfg       *config.Config
	logger    *zap.Logger
	page      Page
	overlay   Overlay
	extractor Extractor
	executor  Executor
	llm       llmclient.Client
	recorder  Recorder
}

// New wires a solver from its components.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	page Page,
	ov Overlay,
	ex Extractor,
	ac Executor,
	llm llmclient.Client,
	rec Recorder,
) *Solver {
	return &Solver{
		cfg:       cfg,
		logger:    logger.Named("solver"),
		page:      page,
		overlay:   ov,
		extractor: ex,
		executor:  ac,
		llm:       llm,
		recorder:  rec,
	}
}

// Run executes one pass over the survey question. The first fatal error is
// returned to the caller, which owns the top-level handling and the browser
// teardown. Option mismatches and a missing next control are degradations,
// not errors.
func (s *Solver) Run(ctx context.Context) error {
	// Step 1: open the survey page and bring up the overlay.
	if err := s.page.Navigate(ctx, s.cfg.Survey.URL); err != nil {
		return err
	}
	s.settle(ctx)
	s.recorder.Capture(ctx, "page_loaded")
	s.overlay.Show(ctx, "Page Loaded")

	// Content below the fold gets a chance to render.
	if s.cfg.Survey.ScrollPixels > 0 {
		s.overlay.Update(ctx, "Scrolling down to load content...")
		if err := s.page.Scroll(ctx, s.cfg.Survey.ScrollPixels); err != nil {
			s.logger.Debug("Scroll failed.", zap.Error(err))
		}
		s.settle(ctx)
		s.recorder.Capture(ctx, "after_scroll")
	}

	// Step 2: capture the live rendered markup.
	renderedHTML, err := s.extractor.RenderedHTML(ctx)
	if err != nil {
		return err
	}
	s.overlay.Update(ctx, "Rendered HTML extracted")
	s.recorder.Capture(ctx, "rendered_html_retrieved")

	// Step 3: locate the question and enumerate its options.
	question, err := s.extractor.Question(ctx)
	if err != nil {
		return err
	}
	if err := s.page.Highlight(ctx, s.cfg.Survey.QuestionSelector, "orange"); err != nil {
		s.logger.Debug("Could not highlight question.", zap.Error(err))
	}
	s.recorder.Capture(ctx, "question_highlighted")

	options, err := s.extractor.Options(ctx)
	if err != nil {
		return err
	}
	for i, opt := range options {
		if err := s.page.Highlight(ctx, opt.Selector, "blue"); err != nil {
			s.logger.Debug("Could not highlight option.", zap.Int("index", i+1), zap.Error(err))
		}
		s.recorder.Capture(ctx, fmt.Sprintf("option_%d_highlighted", i+1))
	}

	// Step 4: one blocking round trip to the decision model.
	labels := make([]string, len(options))
	for i, opt := range options {
		labels[i] = opt.Label
	}
	req := llmclient.SurveyRequest(renderedHTML, question, labels)
	s.logger.Info("Sending prompt to the decision model.", zap.Int("option_count", len(options)))
	s.logger.Debug("Prompt built.", zap.String("prompt", req.UserPrompt))
	s.overlay.Update(ctx, "Processing Survey Question...")

	answer, err := s.llm.Complete(ctx, req)
	if err != nil {
		return err
	}
	s.logger.Info("Model chose an option.", zap.String("answer", answer))
	s.overlay.Update(ctx, "AI Chose: "+answer)
	s.recorder.Capture(ctx, "ai_choice_received")

	// Step 5: click the matching control, first occurrence wins.
	if _, err := s.executor.ClickChosen(ctx, options, answer); err != nil {
		if !errors.Is(err, survey.ErrNoMatch) {
			return err
		}
		s.overlay.Update(ctx, "Chosen option not found!")
	} else {
		s.recorder.Capture(ctx, "chosen_option_highlighted")
	}

	// Step 6: best-effort click of the forward control.
	s.overlay.Update(ctx, "Clicking Next...")
	if err := s.executor.ClickNext(ctx); err != nil {
		if !errors.Is(err, survey.ErrNextNotFound) {
			return err
		}
		s.overlay.Update(ctx, "Next button not found!")
	}

	s.settle(ctx)
	s.recorder.Capture(ctx, "final_state")
	s.overlay.Update(ctx, "Process Completed")
	s.logger.Info("Run completed.")
	return nil
}

// settle gives asynchronous page rendering a bounded moment to finish. The
// wait is interruptible by context cancellation.
func (s *Solver) settle(ctx context.Context) {
	wait := s.cfg.Survey.SettleWait
	if wait <= 0 {
		return
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
