package processor

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/feichai0017/pdf-processor/internal/models"
)

type ContentOptions struct {
	ExtractKeywords bool
	NumKeywords     int
	Language        string
	GenerateSummary bool
	SummarySize     int // sentences
}

func DefaultContentOptions() ContentOptions {
	return ContentOptions{
		ExtractKeywords: true,
		NumKeywords:     15,
		Language:        "english",
		SummarySize:     5,
	}
}

// ContentAnalyzer derives keywords and an optional lead summary from the full text.
type ContentAnalyzer struct {
	opts      ContentOptions
	stopwords map[string]struct{}
}

func NewContentAnalyzer(opts ContentOptions) (*ContentAnalyzer, error) {
	if opts.Language == "" {
		opts.Language = "english"
	}
	words, ok := stopwords[strings.ToLower(opts.Language)]
	if !ok {
		return nil, fmt.Errorf("no stopwords for language %q", opts.Language)
	}
	if opts.NumKeywords < 0 {
		return nil, fmt.Errorf("keyword count must not be negative, got %d", opts.NumKeywords)
	}
	if opts.SummarySize <= 0 {
		opts.SummarySize = DefaultContentOptions().SummarySize
	}
	return &ContentAnalyzer{opts: opts, stopwords: words}, nil
}

func (a *ContentAnalyzer) Name() string {
	return ContentStage
}

func (a *ContentAnalyzer) Process(doc *models.DocumentResult) error {
	if doc.Text == "" {
		return nil
	}
	if a.opts.ExtractKeywords {
		doc.Keywords = a.Keywords(doc.Text)
	}
	if a.opts.GenerateSummary {
		doc.Summary = a.Summary(doc.Text)
	}
	return nil
}

// Keywords returns the most frequent non-stopword alphabetic tokens longer than two
// characters, most frequent first. Equal counts keep first-seen order.
func (a *ContentAnalyzer) Keywords(text string) []string {
	counts := make(map[string]int)
	var order []string

	for _, word := range tokenize(text) {
		if !a.qualifies(word) {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > a.opts.NumKeywords {
		order = order[:a.opts.NumKeywords]
	}
	if order == nil {
		return []string{}
	}
	return order
}

// tokenize lower-cases text and splits it on whitespace and on "--", which the
// normalizer produces for dashes. Surrounding punctuation is trimmed from each token.
func tokenize(text string) []string {
	var words []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		for _, part := range strings.Split(field, "--") {
			word := strings.TrimFunc(part, func(r rune) bool {
				return unicode.IsPunct(r) || unicode.IsSymbol(r)
			})
			if word != "" {
				words = append(words, word)
			}
		}
	}
	return words
}

func (a *ContentAnalyzer) qualifies(word string) bool {
	if utf8.RuneCountInString(word) <= 2 {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	_, stop := a.stopwords[word]
	return !stop
}

// Summary returns the first SummarySize sentences, or the whole text when it is not
// longer than that.
func (a *ContentAnalyzer) Summary(text string) string {
	sentences := splitSentences(text)
	if len(sentences) <= a.opts.SummarySize {
		return text
	}
	return strings.Join(sentences[:a.opts.SummarySize], " ")
}

// splitSentences breaks after '.', '!' or '?' runs (optionally followed by closing
// quotes or brackets) when whitespace follows.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && (isTerminator(runes[end]) || isCloser(runes[end])) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			i = end - 1
			continue
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, s)
		}
		start = end
		i = end - 1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == ']'
}
