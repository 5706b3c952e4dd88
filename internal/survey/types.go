// internal/survey/types.go
package survey

import "context"

// Page is the set of browser primitives the survey components operate on.
// *browser.Session satisfies it; tests substitute fakes.
type Page interface {
	Eval(ctx context.Context, js string, out interface{}) error
	Text(ctx context.Context, selector string) (string, error)
	Click(ctx context.Context, selector string) error
	ClickMatching(ctx context.Context, xpath string) error
	Highlight(ctx context.Context, selector, color string) error
}

// Option is one selectable survey answer: a stable selector for its control
// plus the resolved label text. Options are kept in DOM order.
type Option struct {
	Selector string
	Label    string
}

// Placeholder labels substituted when a control cannot be tied to a label
// element. Extraction keeps going instead of failing the run.
const (
	PlaceholderNoID    = "(no id/label)"
	PlaceholderNoLabel = "(no label)"
)
