// internal/overlay/overlay.go
package overlay

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// page is the single browser primitive the overlay needs.
type page interface {
	Eval(ctx context.Context, js string, out interface{}) error
}

// elementID identifies the banner element on the page.
const elementID = "ai-overlay"

// Controller manages a transparent full-screen status banner injected on top
// of the loaded page. It exists purely for human observability: every method
// is best effort, failures are logged and never abort the run.
type Controller struct {
	page   page
	logger *zap.Logger
}

// New creates an overlay controller bound to the given page.
func New(p page, logger *zap.Logger) *Controller {
	return &Controller{
		page:   p,
		logger: logger.Named("overlay"),
	}
}

// Show idempotently injects the overlay element and sets its initial text.
// Calling it again on a page that already has the overlay only updates the text.
func (c *Controller) Show(ctx context.Context, text string) {
	js := fmt.Sprintf(`(function() {
		if (!document.getElementById(%q)) {
			var overlay = document.createElement('div');
			overlay.id = %q;
			overlay.style.position = 'fixed';
			overlay.style.top = '0';
			overlay.style.left = '0';
			overlay.style.width = '100%%';
			overlay.style.height = '100%%';
			overlay.style.backgroundColor = 'rgba(0, 0, 0, 0.5)';
			overlay.style.color = 'white';
			overlay.style.fontSize = '24px';
			overlay.style.display = 'flex';
			overlay.style.alignItems = 'center';
			overlay.style.justifyContent = 'center';
			overlay.style.zIndex = '9999';
			overlay.style.pointerEvents = 'none';
			document.body.appendChild(overlay);
		}
	})()`, elementID, elementID)

	if err := c.page.Eval(ctx, js, nil); err != nil {
		c.logger.Warn("Failed to inject overlay.", zap.Error(err))
		return
	}
	c.Update(ctx, text)
}

// Update sets the text displayed inside the overlay. A missing overlay is a
// no-op on the page side.
func (c *Controller) Update(ctx context.Context, text string) {
	js := fmt.Sprintf(`(function() {
		var overlay = document.getElementById(%q);
		if (overlay) {
			overlay.innerHTML = '';
			var box = document.createElement('div');
			box.style.background = 'rgba(0,0,0,0.7)';
			box.style.padding = '10px';
			box.style.borderRadius = '5px';
			box.textContent = %q;
			overlay.appendChild(box);
		}
	})()`, elementID, text)

	if err := c.page.Eval(ctx, js, nil); err != nil {
		c.logger.Warn("Failed to update overlay.", zap.String("text", text), zap.Error(err))
		return
	}
	c.logger.Debug("Overlay updated.", zap.String("text", text))
}

// Remove deletes the overlay element from the page.
func (c *Controller) Remove(ctx context.Context) {
	js := fmt.Sprintf(`(function() {
		var overlay = document.getElementById(%q);
		if (overlay) {
			overlay.parentNode.removeChild(overlay);
		}
	})()`, elementID)

	if err := c.page.Eval(ctx, js, nil); err != nil {
		c.logger.Warn("Failed to remove overlay.", zap.Error(err))
	}
}
