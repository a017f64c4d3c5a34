package ingestion_engine

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/markdave123-py/docvault/internal/core"
)

// SniffLen is how many leading bytes of an upload the validator inspects.
const SniffLen = 3072

// Validate resolves the kind of an upload. The declared media type must name
// a supported kind and the content head must sniff as that same kind; the
// client's word alone is never enough.
func Validate(declared string, head []byte) (core.Kind, error) {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(declared))
	if err != nil {
		return core.KindUnknown, fmt.Errorf("%w: media type %q", core.ErrUnsupportedFormat, declared)
	}

	var kind core.Kind
	switch mt {
	case core.MediaTypePDF:
		kind = core.KindPDF
	case core.MediaTypeText:
		kind = core.KindText
	default:
		return core.KindUnknown, fmt.Errorf("%w: only PDF and text files are allowed, got %q", core.ErrUnsupportedFormat, mt)
	}

	if len(head) == 0 {
		if kind == core.KindText {
			return kind, nil
		}
		return core.KindUnknown, fmt.Errorf("%w: empty %s upload", core.ErrUnsupportedFormat, mt)
	}

	detected := mimetype.Detect(head)
	if !sniffedAs(detected, kind.MediaType()) {
		return core.KindUnknown, fmt.Errorf("%w: declared %s but content is %s", core.ErrUnsupportedFormat, mt, detected.String())
	}
	return kind, nil
}

// sniffedAs walks up the detected type's hierarchy, so text/csv or
// application/json still count as text/plain.
func sniffedAs(m *mimetype.MIME, want string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}
