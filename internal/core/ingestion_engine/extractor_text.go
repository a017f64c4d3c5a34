package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/markdave123-py/docvault/internal/core"
)

const textReadChunk = 32 << 10

var _ core.Extractor = (*TextExtractor)(nil)

// TextExtractor decodes a flat byte stream as UTF-8 (or BOM-marked UTF-16),
// reading it in fixed-size chunks.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Extract(ctx context.Context, r io.Reader) (string, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	var sb strings.Builder
	buf := make([]byte, textReadChunk)
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", core.ErrExtractionFailure, err)
		}
		n, err := dec.Read(buf)
		sb.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: read text: %w", core.ErrStorageFailure, err)
		}
	}
	return sb.String(), nil
}
