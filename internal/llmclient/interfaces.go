// internal/llmclient/interfaces.go
package llmclient

import "context"

// Request is one two-message chat exchange: a fixed system instruction plus
// the user prompt carrying the page context.
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// Client is the decision client contract. Complete blocks until the remote
// service answers or the call fails; there is no retry and no streaming, a
// single round trip returning the trimmed text of the first choice.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
