package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/feichai0017/pdf-processor/pkg/logger"
)

const LayoutName = "layout"

// LayoutOptions control how glyph positions are turned back into lines.
type LayoutOptions struct {
	RowTolerance        float64 // max baseline difference (points) for glyphs on the same row
	WordSpaceMultiplier float64 // gap wider than this fraction of the font size is a space
	ParagraphGap        float64 // row gap wider than this many line heights is a blank line
}

func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		RowTolerance:        3.0,
		WordSpaceMultiplier: 0.3,
		ParagraphGap:        2.0,
	}
}

// LayoutBackend rebuilds page text from glyph geometry: rows top to bottom, glyphs left to
// right. It does not detect columns or tables.
type LayoutBackend struct {
	backend
	opts LayoutOptions
}

func NewLayoutBackend(log logger.Logger, opts LayoutOptions) *LayoutBackend {
	b := &LayoutBackend{opts: opts}
	b.backend = backend{
		name:   LayoutName,
		logger: log,
		pageText: func(page pdf.Page) (string, error) {
			return b.opts.render(page.Content().Text), nil
		},
	}
	return b
}

type row struct {
	y      float64
	size   float64
	glyphs []pdf.Text
}

func (o LayoutOptions) render(texts []pdf.Text) string {
	glyphs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" {
			glyphs = append(glyphs, t)
		}
	}
	if len(glyphs) == 0 {
		return ""
	}

	sort.SliceStable(glyphs, func(i, j int) bool {
		if glyphs[i].Y != glyphs[j].Y {
			return glyphs[i].Y > glyphs[j].Y
		}
		return glyphs[i].X < glyphs[j].X
	})

	var rows []*row
	for _, g := range glyphs {
		if n := len(rows); n > 0 && math.Abs(rows[n-1].y-g.Y) <= o.RowTolerance {
			r := rows[n-1]
			r.glyphs = append(r.glyphs, g)
			r.size = math.Max(r.size, fontSize(g))
			continue
		}
		rows = append(rows, &row{y: g.Y, size: fontSize(g), glyphs: []pdf.Text{g}})
	}

	var sb strings.Builder
	for i, r := range rows {
		if i > 0 {
			prev := rows[i-1]
			if prev.y-r.y > o.ParagraphGap*prev.size {
				sb.WriteString("\n\n")
			} else {
				sb.WriteString("\n")
			}
		}
		sb.WriteString(o.line(r.glyphs))
	}
	return sb.String()
}

func (o LayoutOptions) line(glyphs []pdf.Text) string {
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].X < glyphs[j].X
	})

	var sb strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			if g.X-(prev.X+prev.W) > o.WordSpaceMultiplier*fontSize(g) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
	}
	return sb.String()
}

func fontSize(t pdf.Text) float64 {
	if t.FontSize <= 0 {
		return 10
	}
	return t.FontSize
}
