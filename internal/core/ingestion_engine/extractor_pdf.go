package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/markdave123-py/docvault/internal/core"
)

var _ core.Extractor = (*PDFExtractor)(nil)

// PDFExtractor implements core.Extractor for application/pdf using
// ledongthuc/pdf. The parser needs random access, so streams that are not
// already files get spooled to a temp file under tempDir.
type PDFExtractor struct {
	tempDir string
}

func NewPDFExtractor(tempDir string) *PDFExtractor {
	return &PDFExtractor{tempDir: tempDir}
}

// Extract walks pages 1..N and joins every text token of every page with a
// single space. A token is the string shown by one text operator. Any
// unreadable page fails the whole document.
func (e *PDFExtractor) Extract(ctx context.Context, r io.Reader) (text string, err error) {
	ra, size, cleanup, err := e.readerAt(r)
	if err != nil {
		return "", fmt.Errorf("%w: buffer pdf: %w", core.ErrStorageFailure, err)
	}
	defer cleanup()

	// The parser panics on some malformed object graphs.
	defer func() {
		if p := recover(); p != nil {
			text = ""
			err = fmt.Errorf("%w: pdf parser: %v", core.ErrExtractionFailure, p)
		}
	}()

	doc, err := pdf.NewReader(ra, size)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", core.ErrExtractionFailure, err)
	}

	var tokens []string
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", core.ErrExtractionFailure, err)
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			return "", fmt.Errorf("%w: page %d missing", core.ErrExtractionFailure, i)
		}
		pageTokens, err := textTokens(page)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", core.ErrExtractionFailure, i, err)
		}
		tokens = append(tokens, pageTokens...)
	}
	return strings.Join(tokens, " "), nil
}

// textTokens returns the strings shown by the page's Tj, TJ, ' and "
// operators in content-stream order. Zero-length shows are dropped.
func textTokens(page pdf.Page) ([]string, error) {
	encoders := make(map[string]pdf.TextEncoding)
	for _, name := range page.Fonts() {
		encoders[name] = page.Font(name).Encoder()
	}

	var (
		enc    pdf.TextEncoding
		tokens []string
	)
	show := func(raw string) {
		s := raw
		if enc != nil {
			s = enc.Decode(raw)
		}
		if s != "" {
			tokens = append(tokens, s)
		}
	}

	walk := func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			if len(args) != 2 {
				panic("bad Tf operator")
			}
			enc = encoders[args[0].Name()]
		case "Tj", "'":
			if len(args) != 1 {
				panic("bad " + op + " operator")
			}
			show(args[0].RawString())
		case `"`:
			if len(args) != 3 {
				panic(`bad " operator`)
			}
			show(args[2].RawString())
		case "TJ":
			if len(args) != 1 {
				panic("bad TJ operator")
			}
			var sb strings.Builder
			for i := 0; i < args[0].Len(); i++ {
				if x := args[0].Index(i); x.Kind() == pdf.String {
					sb.WriteString(x.RawString())
				}
			}
			show(sb.String())
		}
	}

	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Null:
	case pdf.Stream:
		pdf.Interpret(contents, walk)
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			pdf.Interpret(contents.Index(i), walk)
		}
	default:
		return nil, fmt.Errorf("unexpected /Contents of kind %v", contents.Kind())
	}
	return tokens, nil
}

func (e *PDFExtractor) readerAt(r io.Reader) (io.ReaderAt, int64, func(), error) {
	noop := func() {}
	switch v := r.(type) {
	case *os.File:
		st, err := v.Stat()
		if err != nil {
			return nil, 0, noop, err
		}
		return v, st.Size(), noop, nil
	case *bytes.Reader:
		return v, v.Size(), noop, nil
	}

	f, err := os.CreateTemp(e.tempDir, "docvault-*.pdf")
	if err != nil {
		return nil, 0, noop, err
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}
	n, err := io.Copy(f, r)
	if err != nil {
		cleanup()
		return nil, 0, noop, err
	}
	return f, n, cleanup, nil
}
