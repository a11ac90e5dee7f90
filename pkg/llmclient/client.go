// pkg/llmclient/client.go
package llmclient

import "context"

// TextCompleter is the text-completion capability used by natural-language
// steps and AI-assisted replay actions. It abstracts the underlying provider.
type TextCompleter interface {
	// Complete produces a text completion for the given prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}
