package classifier

import (
	"testing"
	"time"

	"research-assistant-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text         string
		wantType     entity.QueryType
		wantPriority entity.Priority
	}{
		{"What is the efficacy of metformin for type 2 diabetes management?", entity.QueryTypeClinicalQuestion, entity.PriorityMedium},
		{"Compare aspirin versus ibuprofen for pain relief", entity.QueryTypeTreatmentComparison, entity.PriorityMedium},
		{"Latest research papers on asthma", entity.QueryTypeLiteratureSearch, entity.PriorityMedium},
		{"URGENT: sepsis antibiotic choice", entity.QueryTypeClinicalQuestion, entity.PriorityCritical},
		{"Important: research on statins", entity.QueryTypeLiteratureSearch, entity.PriorityHigh},
		{"critical difference between two anticoagulants", entity.QueryTypeTreatmentComparison, entity.PriorityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			gotType, gotPriority := Classify(tt.text)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantPriority, gotPriority)
		})
	}
}

func TestPriorityScore(t *testing.T) {
	q := &entity.Query{Text: "severe acute asthma", Priority: entity.PriorityCritical, Type: entity.QueryTypeClinicalQuestion}

	// 1.0 + 2*0.2 + 0.3*0.5 + 0.4
	assert.InDelta(t, 1.95, PriorityScore(q, 0.5), 1e-9)

	q = &entity.Query{Text: "x", Priority: "", Type: entity.QueryTypeGeneral}
	assert.InDelta(t, 0.6, PriorityScore(q, 0), 1e-9)
}

func TestPrioritizeIsStable(t *testing.T) {
	now := time.Now()
	mk := func(text string, p entity.Priority) *entity.Query {
		q, err := entity.NewQuery(text, now)
		require.NoError(t, err)
		q.Priority = p
		q.Type = entity.QueryTypeClinicalQuestion
		return q
	}
	a := mk("first medium", entity.PriorityMedium)
	b := mk("second medium", entity.PriorityMedium)
	c := mk("critical one", entity.PriorityCritical)
	d := mk("third medium", entity.PriorityMedium)

	out := Prioritize([]*entity.Query{a, b, c, d}, func(string) float64 { return 0 })

	assert.Equal(t, []*entity.Query{c, a, b, d}, out)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("aspirin", ""))
	assert.Equal(t, 1.0, Similarity("Aspirin dose", "aspirin DOSE"))

	pairs := [][2]string{
		{"aspirin for headache", "ibuprofen for headache"},
		{"metformin side effects", "side effects of metformin in elderly"},
		{"a b c", "c d e f"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]))
	}
	assert.InDelta(t, 0.5, Similarity("aspirin for headache", "ibuprofen for headache"), 1e-9)
}

func TestDetectDuplicates(t *testing.T) {
	qs := []*entity.Query{
		{Text: "metformin dosing in renal impairment"},
		{Text: "insulin pump therapy"},
		{Text: "Metformin dosing in renal impairment"},
	}

	assert.Equal(t, []DuplicatePair{{I: 0, J: 2}}, DetectDuplicates(qs))
	assert.Empty(t, DetectDuplicates(qs[:2]))
}
