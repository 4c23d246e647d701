package processor

import (
	"regexp"
	"sort"

	"github.com/feichai0017/pdf-processor/internal/models"
)

const (
	EntityEmails = "emails"
	EntityPhones = "phones"
	EntityURLs   = "urls"
	EntityDates  = "dates"
)

type EntityOptions struct {
	ExtractEmails bool
	ExtractPhones bool
	ExtractURLs   bool
	ExtractDates  bool
}

func DefaultEntityOptions() EntityOptions {
	return EntityOptions{
		ExtractEmails: true,
		ExtractPhones: true,
		ExtractURLs:   true,
		ExtractDates:  true,
	}
}

const monthName = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*`

var entityPatterns = map[string][]*regexp.Regexp{
	EntityEmails: {
		regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	},
	EntityPhones: {
		regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\(\d{3}\)[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	},
	EntityURLs: {
		regexp.MustCompile(`https?://(?:[-\p{L}\p{N}_.]|(?:%[\da-fA-F]{2}))+[^\s]*`),
	},
	EntityDates: {
		regexp.MustCompile(`(?i)\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b` + monthName + ` \d{1,2},? \d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2} ` + monthName + ` \d{4}\b`),
	},
}

// EntityExtractor collects emails, phone numbers, URLs and dates from the full text.
type EntityExtractor struct {
	categories []string
}

func NewEntityExtractor(opts EntityOptions) *EntityExtractor {
	var categories []string
	if opts.ExtractEmails {
		categories = append(categories, EntityEmails)
	}
	if opts.ExtractPhones {
		categories = append(categories, EntityPhones)
	}
	if opts.ExtractURLs {
		categories = append(categories, EntityURLs)
	}
	if opts.ExtractDates {
		categories = append(categories, EntityDates)
	}
	return &EntityExtractor{categories: categories}
}

func (e *EntityExtractor) Name() string {
	return EntityStage
}

func (e *EntityExtractor) Process(doc *models.DocumentResult) error {
	doc.Entities = e.Extract(doc.Text)
	return nil
}

// Extract returns one sorted, de-duplicated list per enabled category. Disabled
// categories are absent; enabled ones are present even when empty.
func (e *EntityExtractor) Extract(text string) map[string][]string {
	entities := make(map[string][]string, len(e.categories))
	for _, category := range e.categories {
		entities[category] = findAll(entityPatterns[category], text)
	}
	return entities
}

func findAll(patterns []*regexp.Regexp, text string) []string {
	seen := make(map[string]struct{})
	for _, re := range patterns {
		for _, m := range re.FindAllString(text, -1) {
			seen[m] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
