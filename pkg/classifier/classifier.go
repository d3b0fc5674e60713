package classifier

import (
	"sort"
	"strings"

	"research-assistant-be/internal/entity"
)

type keywordRule[T any] struct {
	terms []string
	value T
}

var typeRules = []keywordRule[entity.QueryType]{
	{[]string{"compare", "versus", "vs", "difference"}, entity.QueryTypeTreatmentComparison},
	{[]string{"literature", "research", "studies", "papers"}, entity.QueryTypeLiteratureSearch},
}

var priorityRules = []keywordRule[entity.Priority]{
	{[]string{"urgent", "critical", "emergency"}, entity.PriorityCritical},
	{[]string{"important", "priority"}, entity.PriorityHigh},
}

var urgencyKeywords = []string{"urgent", "emergency", "critical", "severe", "acute"}

var priorityWeights = map[entity.Priority]float64{
	entity.PriorityCritical: 1.0,
	entity.PriorityHigh:     0.8,
	entity.PriorityMedium:   0.5,
	entity.PriorityLow:      0.2,
}

var typeBonus = map[entity.QueryType]float64{
	entity.QueryTypeClinicalQuestion:    0.4,
	entity.QueryTypeTreatmentComparison: 0.3,
	entity.QueryTypeLiteratureSearch:    0.2,
}

const (
	defaultTypeBonus     = 0.1
	defaultPriorityScore = 0.5
	urgencyWeight        = 0.2
	relevanceWeight      = 0.3
	DuplicateThreshold   = 0.8
)

// Classify assigns a type and priority by ordered substring rules; first match wins.
func Classify(text string) (entity.QueryType, entity.Priority) {
	lower := strings.ToLower(text)
	return firstMatch(lower, typeRules, entity.QueryTypeClinicalQuestion),
		firstMatch(lower, priorityRules, entity.PriorityMedium)
}

// Apply classifies q in place.
func Apply(q *entity.Query) {
	q.Type, q.Priority = Classify(q.Text)
}

// PriorityScore orders a batch: priority weight, urgency keywords, relevance and type bonus.
func PriorityScore(q *entity.Query, medicalScore float64) float64 {
	score, ok := priorityWeights[q.Priority]
	if !ok {
		score = defaultPriorityScore
	}

	lower := strings.ToLower(q.Text)
	for _, kw := range urgencyKeywords {
		if strings.Contains(lower, kw) {
			score += urgencyWeight
		}
	}

	score += relevanceWeight * medicalScore

	if bonus, ok := typeBonus[q.Type]; ok {
		score += bonus
	} else {
		score += defaultTypeBonus
	}
	return score
}

// Prioritize returns a new slice sorted by descending score. Ties keep input order.
func Prioritize(queries []*entity.Query, relevance func(string) float64) []*entity.Query {
	type scored struct {
		q     *entity.Query
		score float64
	}
	items := make([]scored, len(queries))
	for i, q := range queries {
		rel := q.MedicalScore
		if relevance != nil {
			rel = relevance(q.Text)
		}
		items[i] = scored{q: q, score: PriorityScore(q, rel)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]*entity.Query, len(items))
	for i, it := range items {
		out[i] = it.q
	}
	return out
}

// Similarity is the Jaccard index of the lower-cased word sets. Two empty sets score 0.
func Similarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// DuplicatePair holds the indices of two near-identical queries, I < J.
type DuplicatePair struct {
	I int `json:"i"`
	J int `json:"j"`
}

func DetectDuplicates(queries []*entity.Query) []DuplicatePair {
	var pairs []DuplicatePair
	for i := 0; i < len(queries); i++ {
		for j := i + 1; j < len(queries); j++ {
			if Similarity(queries[i].Text, queries[j].Text) > DuplicateThreshold {
				pairs = append(pairs, DuplicatePair{I: i, J: j})
			}
		}
	}
	return pairs
}

func firstMatch[T any](lower string, rules []keywordRule[T], fallback T) T {
	for _, r := range rules {
		for _, term := range r.terms {
			if strings.Contains(lower, term) {
				return r.value
			}
		}
	}
	return fallback
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
