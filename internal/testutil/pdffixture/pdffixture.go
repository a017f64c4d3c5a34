// Package pdffixture renders tiny, valid PDFs for tests.
package pdffixture

import (
	"bytes"
	"fmt"
	"strings"
)

// Build renders a minimal uncompressed PDF with one Helvetica text run per
// page and a correct xref table. An empty string yields a page with no text.
func Build(pages ...string) []byte {
	runs := make([][]string, len(pages))
	for i, text := range pages {
		runs[i] = []string{text}
	}
	return BuildRuns(runs...)
}

// BuildRuns renders one page per element. Each run on a page is shown by its
// own Tj, one line below the previous one.
func BuildRuns(pages ...[]string) []byte {
	contents := make([]string, len(pages))
	for i, runs := range pages {
		var sb strings.Builder
		sb.WriteString("BT /F1 24 Tf 72 720 Td")
		for j, run := range runs {
			if j > 0 {
				sb.WriteString(" 0 -30 Td")
			}
			fmt.Fprintf(&sb, " (%s) Tj", Escape(run))
		}
		sb.WriteString(" ET")
		contents[i] = sb.String()
	}
	return BuildContent(contents...)
}

// BuildContent renders one page per raw content stream. Font /F1 is
// Helvetica with WinAnsiEncoding.
func BuildContent(contents ...string) []byte {
	kids := make([]string, len(contents))
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(contents)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, content := range contents {
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// Escape quotes s as the body of a PDF literal string.
func Escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
