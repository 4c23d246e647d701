package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/pdf-processor/internal/models"
)

func newAnalyzer(t *testing.T, opts ContentOptions) *ContentAnalyzer {
	t.Helper()
	a, err := NewContentAnalyzer(opts)
	require.NoError(t, err)
	return a
}

func TestKeywords_FrequencyThenFirstSeen(t *testing.T) {
	a := newAnalyzer(t, DefaultContentOptions())

	text := "Invoice total. The invoice lists a total and a tax. Tax, invoice, shipping."
	assert.Equal(t, []string{"invoice", "total", "tax", "lists", "shipping"}, a.Keywords(text))
}

func TestKeywords_Filters(t *testing.T) {
	a := newAnalyzer(t, DefaultContentOptions())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"numbers only", "123 456 7.89", []string{}},
		{"stopwords only", "the and which should", []string{}},
		{"short words", "an ox is up", []string{}},
		{"mixed alphanumerics dropped", "abc123 report", []string{"report"}},
		{"surrounding punctuation trimmed", "(budget) \"budget\" budget!", []string{"budget"}},
		{"lowercased", "Budget BUDGET budget", []string{"budget"}},
		{"contractions dropped", "don't won't report", []string{"report"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Keywords(tt.text))
		})
	}
}

func TestKeywords_NormalizedDashes(t *testing.T) {
	a := newAnalyzer(t, DefaultContentOptions())
	n := NewTextNormalizer(DefaultNormalizerOptions())

	text := n.Normalize("Pipeline—extraction matters. Pipeline—extraction again; pipeline/extraction.")
	require.Contains(t, text, "Pipeline--extraction")
	assert.Equal(t, []string{"pipeline", "extraction", "matters"}, a.Keywords(text))

	assert.Equal(t, []string{"before", "after"}, a.Keywords("before---after"))
}

func TestKeywords_Limit(t *testing.T) {
	opts := DefaultContentOptions()
	opts.NumKeywords = 3
	a := newAnalyzer(t, opts)

	assert.Len(t, a.Keywords("alpha beta gamma delta epsilon"), 3)
	assert.Len(t, a.Keywords("alpha beta"), 2)

	opts.NumKeywords = 0
	assert.Empty(t, newAnalyzer(t, opts).Keywords("alpha beta"))
}

func TestNewContentAnalyzer_UnknownLanguage(t *testing.T) {
	opts := DefaultContentOptions()
	opts.Language = "klingon"
	_, err := NewContentAnalyzer(opts)
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	opts := DefaultContentOptions()
	opts.SummarySize = 2
	a := newAnalyzer(t, opts)

	short := "One sentence. Two sentences!"
	assert.Equal(t, short, a.Summary(short))

	long := "First one. Second one? Third one! Fourth."
	assert.Equal(t, "First one. Second one?", a.Summary(long))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", nil},
		{"No terminator", []string{"No terminator"}},
		{"Version 1.2 is out. Next.", []string{"Version 1.2 is out.", "Next."}},
		{"Wait... what?! Yes.", []string{"Wait...", "what?!", "Yes."}},
		{`He said "stop." Then left.`, []string{`He said "stop."`, "Then left."}},
		{"Line one.\nLine two.", []string{"Line one.", "Line two."}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitSentences(tt.text), tt.text)
	}
}

func TestContentAnalyzer_Process(t *testing.T) {
	opts := DefaultContentOptions()
	opts.GenerateSummary = true
	a := newAnalyzer(t, opts)

	doc := models.NewDocumentResult("a.pdf", "embedded", "Report on revenue. Revenue grew.", nil, nil)
	require.NoError(t, a.Process(doc))
	assert.Equal(t, []string{"revenue", "report", "grew"}, doc.Keywords)
	assert.Equal(t, "Report on revenue. Revenue grew.", doc.Summary)

	empty := models.NewDocumentResult("b.pdf", "embedded", "", nil, nil)
	require.NoError(t, a.Process(empty))
	assert.Empty(t, empty.Keywords)
	assert.Empty(t, empty.Summary)
}

func TestContentAnalyzer_KeywordsDisabled(t *testing.T) {
	opts := DefaultContentOptions()
	opts.ExtractKeywords = false
	a := newAnalyzer(t, opts)

	doc := models.NewDocumentResult("a.pdf", "embedded", strings.Repeat("revenue ", 3), nil, nil)
	require.NoError(t, a.Process(doc))
	assert.Empty(t, doc.Keywords)
}
