package ingestion_engine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/markdave123-py/docvault/internal/core"
)

// Engine dispatches extraction by kind and normalizes the result.
type Engine struct {
	extractors map[core.Kind]core.Extractor
}

// NewEngine wires the PDF and text extractors. tempDir is where PDFs that
// arrive as plain streams are spooled; empty means os.TempDir.
func NewEngine(tempDir string) *Engine {
	return &Engine{extractors: map[core.Kind]core.Extractor{
		core.KindPDF:  NewPDFExtractor(tempDir),
		core.KindText: NewTextExtractor(),
	}}
}

func (e *Engine) Extract(ctx context.Context, r io.Reader, kind core.Kind) (string, error) {
	ex, ok := e.extractors[kind]
	if !ok {
		return "", fmt.Errorf("%w: no extractor for kind %s", core.ErrUnsupportedFormat, kind)
	}
	text, err := ex.Extract(ctx, r)
	if err != nil {
		return "", err
	}
	return Normalize(text), nil
}

// Normalize flattens text for consumers: every newline becomes one space.
// Nothing else is touched, and the original line structure is not recoverable.
func Normalize(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}
