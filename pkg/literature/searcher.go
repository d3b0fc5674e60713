package literature

import (
	"context"
	"fmt"
	"strings"

	"research-assistant-be/internal/constant"
)

// Article is candidate metadata from a literature source.
type Article struct {
	PMID            string   `json:"pmid"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Journal         string   `json:"journal"`
	PublicationDate string   `json:"publication_date"`
	Abstract        string   `json:"abstract"`
}

type Searcher interface {
	Search(ctx context.Context, terms []string) ([]Article, error)
}

// MockSearcher returns two fixed trial reports shaped around the first search term.
type MockSearcher struct{}

func NewMockSearcher() *MockSearcher {
	return &MockSearcher{}
}

func (MockSearcher) Search(ctx context.Context, terms []string) ([]Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	topic, subject := "Medical Condition", "various medical conditions"
	protocol := "Treatment"
	if len(terms) > 0 && terms[0] != "" {
		topic, subject, protocol = terms[0], terms[0], terms[0]
	}
	return []Article{
		{
			PMID:            "12345678",
			Title:           fmt.Sprintf("Efficacy of Novel Treatment for %s", topic),
			Authors:         []string{"Smith, J.", "Johnson, M.", "Brown, K."},
			Journal:         "New England Journal of Medicine",
			PublicationDate: "2023-09-15",
			Abstract: fmt.Sprintf("This randomized controlled trial evaluated the efficacy of novel treatment approaches for %s. "+
				"Results showed significant improvement in patient outcomes.", subject),
		},
		{
			PMID:            "12345679",
			Title:           fmt.Sprintf("Comparative Analysis of %s Protocols", protocol),
			Authors:         []string{"Davis, A.", "Wilson, R."},
			Journal:         "The Lancet",
			PublicationDate: "2023-08-22",
			Abstract: fmt.Sprintf("A comprehensive meta-analysis comparing different %s protocols and their clinical outcomes "+
				"across diverse patient populations.", strings.ToLower(protocol)),
		},
	}, nil
}

const maxSearchTerms = 5

// ExtractSearchTerms picks known clinical keywords first, then longer alphabetic
// words, deduplicated in order of appearance.
func ExtractSearchTerms(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var terms []string
	add := func(t string) {
		if !seen[t] && len(terms) < maxSearchTerms {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	for _, kw := range constant.SearchKeywords {
		if strings.Contains(lower, kw) {
			add(kw)
		}
	}
	for _, w := range strings.Fields(text) {
		if len(w) > 4 && isAlpha(w) {
			add(strings.ToLower(w))
		}
	}
	return terms
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
