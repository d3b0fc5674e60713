package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"research-assistant-be/internal/entity"
	"research-assistant-be/pkg/apperr"
	"research-assistant-be/pkg/literature"
	"research-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func query(text string, qt entity.QueryType) *entity.Query {
	q, _ := entity.NewQuery(text, fixedNow)
	q.Type = qt
	return q
}

func newGen(p llm.LLMProvider) *LLMGenerator {
	return NewLLMGenerator(p, literature.NewMockSearcher(), WithClock(func() time.Time { return fixedNow }))
}

func TestLiteratureSearchBuildsSummaries(t *testing.T) {
	p := llm.NewStaticProvider("- HbA1c fell by 1.1%\n- Well tolerated\nnoise line")
	g := newGen(p)

	res, err := g.Generate(context.Background(), Request{
		Query:        query("Latest metformin therapy trials", entity.QueryTypeLiteratureSearch),
		ResearcherId: "r1",
		ProjectId:    "p1",
	})

	require.NoError(t, err)
	assert.Equal(t, 0.85, res.Confidence)
	require.Len(t, res.Payload.Summaries, 2)
	s := res.Payload.Summaries[0]
	assert.Equal(t, []string{"HbA1c fell by 1.1%", "Well tolerated"}, s.KeyFindings)
	assert.Equal(t, "r1", s.ResearcherId)
	assert.Equal(t, "New England Journal of Medicine", s.Journal)
	assert.Equal(t, fixedNow, s.CreatedAt)
	assert.Contains(t, res.Payload.SearchTerms, "therapy")
	assert.Equal(t, 2, p.Calls())
}

func TestTreatmentComparisonParsesJSON(t *testing.T) {
	p := llm.NewStaticProvider("```json\n" + `{"disease_condition":"pain","efficacy_metrics":{"Aspirin":"good"},"side_effects":{"Ibuprofen":["GI upset"]},"recommendation":"either","confidence_level":"high"}` + "\n```")
	res, err := newGen(p).Generate(context.Background(), Request{
		Query: query("Compare aspirin versus ibuprofen for pain relief", entity.QueryTypeTreatmentComparison),
	})

	require.NoError(t, err)
	require.Len(t, res.Payload.Comparisons, 1)
	c := res.Payload.Comparisons[0]
	assert.Equal(t, []string{"Aspirin", "Ibuprofen"}, c.Treatments)
	assert.Equal(t, "pain", c.DiseaseCondition)
	assert.Equal(t, "high", c.ConfidenceLevel)
	assert.Equal(t, []string{"GI upset"}, c.SideEffects["Ibuprofen"])
	assert.Equal(t, 0.8, res.Confidence)
}

func TestTreatmentComparisonFallsBackToText(t *testing.T) {
	p := llm.NewStaticProvider("Both are reasonable first-line options.")
	res, err := newGen(p).Generate(context.Background(), Request{
		Query:        query("metformin versus insulin", entity.QueryTypeTreatmentComparison),
		DiseaseFocus: "type 2 diabetes",
	})
	require.NoError(t, err)
	c := res.Payload.Comparisons[0]
	assert.Equal(t, "Both are reasonable first-line options.", c.Recommendation)
	assert.Equal(t, "medium", c.ConfidenceLevel)
	assert.Equal(t, "type 2 diabetes", c.DiseaseCondition)
}

func TestTreatmentComparisonNeedsTwoTreatments(t *testing.T) {
	p := llm.NewStaticProvider("unused")
	res, err := newGen(p).Generate(context.Background(), Request{
		Query: query("Compare aspirin", entity.QueryTypeTreatmentComparison),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Payload.Error)
	assert.Zero(t, p.Calls())
}

func TestBackendFailureIsGenerationUnavailable(t *testing.T) {
	p := llm.NewStaticProvider("")
	p.Err = errors.New("connection refused")

	_, err := newGen(p).Generate(context.Background(), Request{Query: query("What is the dosage of aspirin?", entity.QueryTypeClinicalQuestion)})
	assert.True(t, errors.Is(err, apperr.ErrGenerationUnavailable))

	_, err = newGen(p).Generate(context.Background(), Request{Query: query("metformin trials", entity.QueryTypeLiteratureSearch)})
	assert.True(t, errors.Is(err, apperr.ErrGenerationUnavailable))

	empty := llm.NewStaticProvider("   ")
	_, err = newGen(empty).Generate(context.Background(), Request{Query: query("statins overview", entity.QueryTypeGeneral)})
	assert.True(t, errors.Is(err, apperr.ErrGenerationUnavailable))
}

func TestClinicalPromptIncludesContext(t *testing.T) {
	p := llm.NewStaticProvider("Answer. Consult your doctor.")
	res, err := newGen(p).Generate(context.Background(), Request{
		Query:   query("What is the dosage of metformin?", entity.QueryTypeClinicalQuestion),
		Context: []string{"Metformin lowers HbA1c"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.75, res.Confidence)
	assert.Contains(t, p.Prompts[0], "Metformin lowers HbA1c")
	assert.Contains(t, p.Prompts[0], "Clinical Question: What is the dosage of metformin?")
}

func TestRateLimitHonoursContext(t *testing.T) {
	p := llm.NewStaticProvider("ok")
	g := NewLLMGenerator(p, literature.NewMockSearcher(), WithRateLimit(0.001, 1))
	q := query("statins overview", entity.QueryTypeGeneral)

	_, err := g.Generate(context.Background(), Request{Query: q})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, Request{Query: q})
	assert.True(t, errors.Is(err, apperr.ErrGenerationUnavailable))
	assert.Equal(t, 1, p.Calls())
}

func TestDegraded(t *testing.T) {
	r := Degraded(context.DeadlineExceeded)
	assert.Equal(t, DegradedText, r.Payload.Text)
	assert.Equal(t, DegradedConfidence, r.Confidence)
	assert.Contains(t, r.Payload.Error, "deadline")
}

func TestParseFindings(t *testing.T) {
	assert.Equal(t, []string{"a", "b 30% lower"}, ParseFindings("Intro\n- a\n2. b 30% lower\n"))
	assert.Equal(t, []string{fallbackFinding}, ParseFindings("no bullets here"))
	assert.Len(t, ParseFindings("- 1\n- 2\n- 3\n- 4\n- 5\n- 6"), 5)
}

func TestExtractTreatments(t *testing.T) {
	assert.Equal(t, []string{"Aspirin", "Ibuprofen"}, ExtractTreatments("aspirin vs ibuprofen"))
	assert.Equal(t, []string{"surgery", "radiotherapy"}, ExtractTreatments("surgery versus radiotherapy?"))
	assert.Empty(t, ExtractTreatments("what helps migraines"))
}
