package processor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/feichai0017/pdf-processor/internal/models"
)

type NormalizerOptions struct {
	RemoveExtraWhitespace bool
	FixLineBreaks         bool
	RemoveHeadersFooters  bool
	NormalizeCharacters   bool
}

func DefaultNormalizerOptions() NormalizerOptions {
	return NormalizerOptions{
		RemoveExtraWhitespace: true,
		FixLineBreaks:         true,
		NormalizeCharacters:   true,
	}
}

var characterTable = strings.NewReplacer(
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2013", "-",
	"\u2014", "--",
	"\u00a0", " ",
	"\u00ad", "-",
	"\u00b7", "*",
	"\uf0b7", "*",
	"\u2022", "*",
	"\u2026", "...",
	"\u00a9", "(c)",
	"\u00ae", "(R)",
)

// Line-break rules only look across a single newline so paragraph breaks survive.
var (
	hyphenBreak  = regexp.MustCompile(`([\p{L}\p{N}_])-[ \t\r]*\n[ \t\r]*([\p{L}\p{N}_])`)
	wordBreak    = regexp.MustCompile(`([\p{L}\p{N}_])[ \t\r]*\n[ \t\r]*([\p{L}\p{N}_])`)
	blankLines   = regexp.MustCompile(`\n\s*\n`)
	spaceRun     = regexp.MustCompile(` +`)
	lineIndent   = regexp.MustCompile(`\n `)
	newlineRun   = regexp.MustCompile(`\n{3,}`)
	headerFooter = regexp.MustCompile(`\bpage\b|\d`)
)

// TextNormalizer repairs extraction artifacts in the full text and in every page.
type TextNormalizer struct {
	opts NormalizerOptions
}

func NewTextNormalizer(opts NormalizerOptions) *TextNormalizer {
	return &TextNormalizer{opts: opts}
}

func (n *TextNormalizer) Name() string {
	return NormalizeStage
}

func (n *TextNormalizer) Process(doc *models.DocumentResult) error {
	doc.Text = n.Normalize(doc.Text)
	for i, page := range doc.Pages {
		doc.Pages[i] = n.Normalize(page)
	}
	return nil
}

// Normalize applies the enabled steps in a fixed order: characters, line breaks,
// whitespace, then header/footer stripping.
func (n *TextNormalizer) Normalize(text string) string {
	if text == "" {
		return text
	}
	if n.opts.NormalizeCharacters {
		text = characterTable.Replace(text)
	}
	if n.opts.FixLineBreaks {
		text = fixLineBreaks(text)
	}
	if n.opts.RemoveExtraWhitespace {
		text = collapseWhitespace(text)
	}
	if n.opts.RemoveHeadersFooters {
		text = stripHeaderFooter(text)
	}
	return text
}

func fixLineBreaks(text string) string {
	// a match consumes the first letter of the next word, so "a\nb\nc" needs two passes
	for {
		next := hyphenBreak.ReplaceAllString(text, "${1}${2}")
		next = wordBreak.ReplaceAllString(next, "${1} ${2}")
		if next == text {
			break
		}
		text = next
	}
	return blankLines.ReplaceAllString(text, "\n\n")
}

func collapseWhitespace(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	text = lineIndent.ReplaceAllString(text, "\n")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// stripHeaderFooter drops the first and last line when they look like running headers
// or page footers. Texts under five lines are left alone.
func stripHeaderFooter(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 5 {
		return text
	}

	last := len(lines) - 1
	skipFirst := looksLikeHeaderFooter(lines[0])
	skipLast := looksLikeHeaderFooter(lines[last])

	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if (i == 0 && skipFirst) || (i == last && skipLast) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func looksLikeHeaderFooter(line string) bool {
	if utf8.RuneCountInString(line) >= 80 {
		return false
	}
	return headerFooter.MatchString(strings.ToLower(line)) ||
		utf8.RuneCountInString(strings.TrimSpace(line)) < 30
}
