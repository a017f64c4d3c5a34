package core

import (
	"context"
	"io"
)

// Extractor turns the raw bytes of one document kind into plain text.
// Implementations must not return partial text together with a nil error.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}
