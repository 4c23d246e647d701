// Package testutil builds small fixture files for tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	lineStep      = 20
	paragraphStep = 40
)

// PDFPage is the text of one fixture page, one entry per line. An empty entry leaves a
// paragraph-sized vertical gap.
type PDFPage []string

// WritePDF writes an uncompressed PDF using Helvetica at 12pt with a fixed 500/1000 glyph
// width, and returns its path.
func WritePDF(t testing.TB, dir, name, title string, pages ...PDFPage) string {
	t.Helper()

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		fontObject(),
		fmt.Sprintf("<< /Title (%s) /Producer (testutil) >>", escape(title)),
	}
	for i, lines := range pages {
		stream := contentStream(lines)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 6+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
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
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// WriteFile writes arbitrary bytes, e.g. a corrupt PDF.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func fontObject() string {
	widths := make([]string, 126-32+1)
	for i := range widths {
		widths[i] = "500"
	}
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		strings.Join(widths, " "))
}

func contentStream(lines []string) string {
	var sb strings.Builder
	y := 720
	for _, line := range lines {
		if line == "" {
			y -= paragraphStep
			continue
		}
		fmt.Fprintf(&sb, "BT /F1 12 Tf 72 %d Td (%s) Tj ET\n", y, escape(line))
		y -= lineStep
	}
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
