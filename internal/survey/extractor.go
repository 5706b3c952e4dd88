// internal/survey/extractor.go
package survey

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/heartofbedrock/AI-survey-solver/internal/config"
)

// Extractor pulls the question and its options out of the live DOM.
type Extractor struct {
	page   Page
	cfg    config.SurveyConfig
	logger *zap.Logger
}

// NewExtractor creates an extractor bound to the given page.
func NewExtractor(p Page, cfg config.SurveyConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		page:   p,
		cfg:    cfg,
		logger: logger.Named("extractor"),
	}
}

// RenderedHTML captures the full rendered markup of the page as a single
// string, the equivalent of the Elements panel view. The result is parsed
// once to report the document title in the log.
func (e *Extractor) RenderedHTML(ctx context.Context) (string, error) {
	var rendered string
	if err := e.page.Eval(ctx, "document.documentElement.outerHTML", &rendered); err != nil {
		return "", fmt.Errorf("failed to capture rendered HTML: %w", err)
	}

	title := "(unparsable document)"
	if doc, err := html.Parse(strings.NewReader(rendered)); err == nil {
		title = documentTitle(doc)
	}
	e.logger.Info("Rendered HTML retrieved from live DOM.",
		zap.Int("bytes", len(rendered)),
		zap.String("title", title),
	)
	return rendered, nil
}

// Question locates the question element by the configured selector and
// returns its trimmed text. A missing question element is fatal for the run.
func (e *Extractor) Question(ctx context.Context) (string, error) {
	text, err := e.page.Text(ctx, e.cfg.QuestionSelector)
	if err != nil {
		return "", fmt.Errorf("survey question not found: %w", err)
	}
	e.logger.Info("Survey question extracted.", zap.String("question", text))
	return text, nil
}

// controlData is the raw per-control record returned by the extraction script.
type controlData struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Label    string `json:"label"`
	HasLabel bool   `json:"hasLabel"`
}

// Options enumerates all selectable controls matching the configured selector,
// in DOM order, and resolves each control's label via the label[for=<id>]
// rule. Controls without an id, or with an id no label points at, get a fixed
// placeholder label instead of failing the extraction.
//
// The script tags every control with a data-solver-idx attribute so later
// clicks can address the exact control even when it has no id of its own.
func (e *Extractor) Options(ctx context.Context) ([]Option, error) {
	js := fmt.Sprintf(`(function() {
		var controls = document.querySelectorAll(%q);
		var out = [];
		for (var i = 0; i < controls.length; i++) {
			var el = controls[i];
			el.setAttribute('data-solver-idx', String(i));
			var id = el.getAttribute('id') || '';
			var label = '';
			var hasLabel = false;
			if (id) {
				var lab = document.querySelector("label[for='" + id + "']");
				if (lab) {
					hasLabel = true;
					label = lab.textContent;
				}
			}
			out.push({index: i, id: id, label: label, hasLabel: hasLabel});
		}
		return out;
	})()`, e.cfg.OptionSelector)

	var controls []controlData
	if err := e.page.Eval(ctx, js, &controls); err != nil {
		return nil, fmt.Errorf("failed to enumerate option controls: %w", err)
	}

	options := make([]Option, 0, len(controls))
	for _, c := range controls {
		opt := Option{
			Selector: fmt.Sprintf("%s[data-solver-idx='%d']", e.cfg.OptionSelector, c.Index),
		}
		switch {
		case c.ID == "":
			opt.Label = PlaceholderNoID
		case !c.HasLabel:
			e.logger.Warn("No label found for option control.", zap.String("control_id", c.ID))
			opt.Label = PlaceholderNoLabel
		default:
			opt.Label = strings.TrimSpace(c.Label)
		}
		options = append(options, opt)
	}

	for i, opt := range options {
		e.logger.Info(fmt.Sprintf("Option %d: %s", i+1, opt.Label))
	}
	return options, nil
}

// documentTitle walks the parsed document for the first <title> text node.
func documentTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := documentTitle(c); title != "" {
			return title
		}
	}
	return ""
}
