package core

import "context"

// Summarizer condenses extracted document text. It is an outbound call to a
// language model and carries no state of its own.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
