// internal/solver/solver_test.go
package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/heartofbedrock/AI-survey-solver/internal/config"
	"github.com/heartofbedrock/AI-survey-solver/internal/llmclient"
	"github.com/heartofbedrock/AI-survey-solver/internal/survey"
)

// fakePage records the workflow's page interactions.
type fakePage struct {
	navigated   []string
	navErr      error
	scrolled    []int
	clicks      []string
	clickErr    error
	matched     []string
	matchErr    error
	highlighted []string
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}
func (f *fakePage) Scroll(_ context.Context, pixels int) error {
	f.scrolled = append(f.scrolled, pixels)
	return nil
}
func (f *fakePage) Eval(context.Context, string, interface{}) error { return nil }
func (f *fakePage) Text(context.Context, string) (string, error)   { return "", nil }
func (f *fakePage) Click(_ context.Context, selector string) error {
	f.clicks = append(f.clicks, selector)
	return f.clickErr
}
func (f *fakePage) ClickMatching(_ context.Context, xpath string) error {
	f.matched = append(f.matched, xpath)
	return f.matchErr
}
func (f *fakePage) Highlight(_ context.Context, selector, _ string) error {
	f.highlighted = append(f.highlighted, selector)
	return nil
}

// fakeOverlay records every status message shown to the viewer.
type fakeOverlay struct {
	messages []string
}

func (f *fakeOverlay) Show(_ context.Context, text string)   { f.messages = append(f.messages, text) }
func (f *fakeOverlay) Update(_ context.Context, text string) { f.messages = append(f.messages, text) }
func (f *fakeOverlay) Remove(context.Context)                {}

type fakeExtractor struct {
	html        string
	htmlErr     error
	question    string
	questionErr error
	options     []survey.Option
	optionsErr  error
}

func (f *fakeExtractor) RenderedHTML(context.Context) (string, error) { return f.html, f.htmlErr }
func (f *fakeExtractor) Question(context.Context) (string, error) {
	return f.question, f.questionErr
}
func (f *fakeExtractor) Options(context.Context) ([]survey.Option, error) {
	return f.options, f.optionsErr
}

// fakeExecutor mirrors the real executor's matching semantics against a fakePage.
type fakeExecutor struct {
	page    *fakePage
	nextErr error
}

func (f *fakeExecutor) ClickChosen(ctx context.Context, options []survey.Option, answer string) (survey.Option, error) {
	for _, opt := range options {
		if opt.Label == answer {
			if err := f.page.Click(ctx, opt.Selector); err != nil {
				return survey.Option{}, err
			}
			return opt, nil
		}
	}
	return survey.Option{}, survey.ErrNoMatch
}

func (f *fakeExecutor) ClickNext(ctx context.Context) error {
	if f.nextErr != nil {
		return f.nextErr
	}
	return f.page.ClickMatching(ctx, "//button[contains(text(), \"Next\")]")
}

type fakeLLM struct {
	answer string
	err    error
	prompt llmclient.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llmclient.Request) (string, error) {
	f.prompt = req
	return f.answer, f.err
}

type fakeRecorder struct {
	labels []string
}

func (f *fakeRecorder) Capture(_ context.Context, label string) string {
	f.labels = append(f.labels, label)
	return label + ".png"
}

type fixture struct {
	cfg       *config.Config
	page      *fakePage
	overlay   *fakeOverlay
	extractor *fakeExtractor
	executor  *fakeExecutor
	llm       *fakeLLM
	recorder  *fakeRecorder
	solver    *Solver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Survey.SettleWait = 0

	page := &fakePage{}
	f := &fixture{
		cfg:     cfg,
		page:    page,
		overlay: &fakeOverlay{},
		extractor: &fakeExtractor{
			html:     "<html><body>survey</body></html>",
			question: "Pick a color",
			options: []survey.Option{
				{Selector: "input[data-solver-idx='0']", Label: "Red"},
				{Selector: "input[data-solver-idx='1']", Label: "Green"},
				{Selector: "input[data-solver-idx='2']", Label: "Blue"},
			},
		},
		executor: &fakeExecutor{page: page},
		llm:      &fakeLLM{answer: "Green"},
		recorder: &fakeRecorder{},
	}
	f.solver = New(cfg, zap.NewNop(), f.page, f.overlay, f.extractor, f.executor, f.llm, f.recorder)
	return f
}

func TestRun_HappyPath(t *testing.T) {
	f := newFixture(t)

	err := f.solver.Run(context.Background())
	require.NoError(t, err)

	// Navigation goes to the configured URL.
	assert.Equal(t, []string{f.cfg.Survey.URL}, f.page.navigated)

	// The scroll stage runs with the configured distance.
	assert.Equal(t, []int{f.cfg.Survey.ScrollPixels}, f.page.scrolled)

	// Exactly the chosen control was clicked, then the forward control.
	assert.Equal(t, []string{"input[data-solver-idx='1']"}, f.page.clicks)
	assert.Len(t, f.page.matched, 1)

	// The prompt carried the markup, the question and the option labels.
	assert.Contains(t, f.llm.prompt.UserPrompt, "<html><body>survey</body></html>")
	assert.Contains(t, f.llm.prompt.UserPrompt, "Pick a color")
	assert.Contains(t, f.llm.prompt.UserPrompt, "Red, Green, Blue")

	// Checkpoints in workflow order.
	assert.Equal(t, []string{
		"page_loaded",
		"after_scroll",
		"rendered_html_retrieved",
		"question_highlighted",
		"option_1_highlighted",
		"option_2_highlighted",
		"option_3_highlighted",
		"ai_choice_received",
		"chosen_option_highlighted",
		"final_state",
	}, f.recorder.labels)

	// Status messages end with the completion banner.
	require.NotEmpty(t, f.overlay.messages)
	assert.Equal(t, "Process Completed", f.overlay.messages[len(f.overlay.messages)-1])
	assert.Contains(t, f.overlay.messages, "AI Chose: Green")
}

func TestRun_AnswerMatchesNoOption(t *testing.T) {
	f := newFixture(t)
	f.llm.answer = "Purple"

	err := f.solver.Run(context.Background())
	require.NoError(t, err, "a mismatched answer is a degradation, not a failure")

	assert.Empty(t, f.page.clicks, "no option control should be clicked")
	assert.Len(t, f.page.matched, 1, "the run still advances the survey")
	assert.Contains(t, f.overlay.messages, "Chosen option not found!")
	assert.NotContains(t, f.recorder.labels, "chosen_option_highlighted")
}

func TestRun_NextControlMissing(t *testing.T) {
	f := newFixture(t)
	f.executor.nextErr = survey.ErrNextNotFound

	err := f.solver.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, f.overlay.messages, "Next button not found!")
	assert.Contains(t, f.recorder.labels, "final_state")
}

func TestRun_FatalErrors(t *testing.T) {
	t.Run("navigation failure", func(t *testing.T) {
		f := newFixture(t)
		f.page.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

		err := f.solver.Run(context.Background())
		assert.Error(t, err)
		assert.Empty(t, f.recorder.labels)
	})

	t.Run("rendered HTML capture failure", func(t *testing.T) {
		f := newFixture(t)
		f.extractor.htmlErr = errors.New("target crashed")

		assert.Error(t, f.solver.Run(context.Background()))
	})

	t.Run("missing question", func(t *testing.T) {
		f := newFixture(t)
		f.extractor.questionErr = errors.New("question not found")

		assert.Error(t, f.solver.Run(context.Background()))
	})

	t.Run("option enumeration failure", func(t *testing.T) {
		f := newFixture(t)
		f.extractor.optionsErr = errors.New("eval failed")

		assert.Error(t, f.solver.Run(context.Background()))
	})

	t.Run("model call failure", func(t *testing.T) {
		f := newFixture(t)
		f.llm.err = errors.New("401 unauthorized")

		err := f.solver.Run(context.Background())
		assert.Error(t, err)
		assert.Empty(t, f.page.clicks, "nothing is clicked without a decision")
	})

	t.Run("failed click on a matched option", func(t *testing.T) {
		f := newFixture(t)
		f.page.clickErr = errors.New("node detached")

		assert.Error(t, f.solver.Run(context.Background()))
	})
}

func TestRun_NoScrollWhenDisabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.Survey.ScrollPixels = 0

	err := f.solver.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.page.scrolled)
	assert.NotContains(t, f.recorder.labels, "after_scroll")
}

func TestSettle_InterruptedByContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	f.cfg.Survey.SettleWait = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		f.solver.settle(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("settle did not return on a cancelled context")
	}
}

func TestRun_NoOptionsStillNavigatesForward(t *testing.T) {
	f := newFixture(t)
	f.extractor.options = nil

	err := f.solver.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, f.overlay.messages, "Chosen option not found!")
	assert.Len(t, f.page.matched, 1)
}
