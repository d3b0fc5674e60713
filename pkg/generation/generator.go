package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"research-assistant-be/internal/constant"
	"research-assistant-be/internal/entity"
	"research-assistant-be/pkg/apperr"
	"research-assistant-be/pkg/literature"
	"research-assistant-be/pkg/llm"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	literatureConfidence = 0.85
	comparisonConfidence = 0.80
	clinicalConfidence   = 0.75
	generalConfidence    = 0.70
	incompleteConfidence = 0.30

	// DegradedConfidence marks responses produced without the generation backend.
	DegradedConfidence = 0.1
	DegradedText       = "generation unavailable"

	maxFindings       = 5
	maxRecommendation = 200
)

// Request carries one query plus the session context it is answered in.
type Request struct {
	Query        *entity.Query
	ResearcherId string
	ProjectId    string
	DiseaseFocus string
	Context      []string // snippets retrieved from memory
}

// Result is the structured content handed back to the orchestrator.
type Result struct {
	Payload    entity.ResponsePayload
	Confidence float64
}

// Generator is the external content capability. Errors mean nothing usable came back.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

type LLMGenerator struct {
	provider llm.LLMProvider
	searcher literature.Searcher
	limiter  *rate.Limiter
	now      func() time.Time
}

type Option func(*LLMGenerator)

// WithRateLimit caps backend calls per second, shared by every session.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(g *LLMGenerator) {
		if perSecond > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *LLMGenerator) {
		g.now = now
	}
}

func NewLLMGenerator(provider llm.LLMProvider, searcher literature.Searcher, opts ...Option) *LLMGenerator {
	g := &LLMGenerator{
		provider: provider,
		searcher: searcher,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Query == nil {
		return nil, apperr.Validation("Generate", "query is required")
	}
	switch req.Query.Type {
	case entity.QueryTypeLiteratureSearch:
		return g.literatureSearch(ctx, req)
	case entity.QueryTypeTreatmentComparison:
		return g.treatmentComparison(ctx, req)
	case entity.QueryTypeClinicalQuestion:
		return g.textAnswer(ctx, fmt.Sprintf(constant.ClinicalQuestionPrompt, contextBlock(req.Context), req.Query.Text), clinicalConfidence)
	default:
		return g.textAnswer(ctx, fmt.Sprintf(constant.GeneralMedicalPrompt, req.Query.Text), generalConfidence)
	}
}

func (g *LLMGenerator) call(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", apperr.GenerationUnavailable("Generate", err)
	}
	out, err := g.provider.Generate(ctx, prompt, opts...)
	if err != nil {
		return "", apperr.GenerationUnavailable("Generate", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", apperr.GenerationUnavailable("Generate", llm.ErrEmptyCompletion)
	}
	return out, nil
}

func (g *LLMGenerator) textAnswer(ctx context.Context, prompt string, confidence float64) (*Result, error) {
	text, err := g.call(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &Result{Payload: entity.ResponsePayload{Text: strings.TrimSpace(text)}, Confidence: confidence}, nil
}

func (g *LLMGenerator) literatureSearch(ctx context.Context, req Request) (*Result, error) {
	terms := literature.ExtractSearchTerms(req.Query.Text)
	articles, err := g.searcher.Search(ctx, terms)
	if err != nil {
		return nil, apperr.GenerationUnavailable("Generate", err)
	}

	var summaries []*entity.LiteratureSummary
	var lastErr error
	for _, a := range articles {
		text, err := g.call(ctx, fmt.Sprintf(constant.LiteratureSummaryPrompt,
			req.Query.Text, a.Title, strings.Join(a.Authors, ", "), a.Journal, a.Abstract))
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		summaries = append(summaries, &entity.LiteratureSummary{
			Id:                uuid.NewString(),
			ResearcherId:      req.ResearcherId,
			ProjectId:         req.ProjectId,
			Title:             a.Title,
			Authors:           a.Authors,
			PublicationDate:   a.PublicationDate,
			Journal:           a.Journal,
			Abstract:          a.Abstract,
			KeyFindings:       ParseFindings(text),
			TreatmentFocus:    req.Query.Text,
			PopulationStudied: "General population",
			Confidence:        literatureConfidence,
			CreatedAt:         g.now().UTC(),
		})
	}
	if len(summaries) == 0 {
		if lastErr == nil {
			lastErr = apperr.GenerationUnavailable("Generate", errors.New("no articles found"))
		}
		return nil, lastErr
	}
	return &Result{
		Payload:    entity.ResponsePayload{SearchTerms: terms, Summaries: summaries},
		Confidence: literatureConfidence,
	}, nil
}

type comparisonJSON struct {
	DiseaseCondition      string              `json:"disease_condition"`
	EfficacyMetrics       map[string]string   `json:"efficacy_metrics"`
	SideEffects           map[string][]string `json:"side_effects"`
	PopulationDifferences map[string]string   `json:"population_differences"`
	Recommendation        string              `json:"recommendation"`
	ConfidenceLevel       string              `json:"confidence_level"`
}

func (g *LLMGenerator) treatmentComparison(ctx context.Context, req Request) (*Result, error) {
	treatments := ExtractTreatments(req.Query.Text)
	if len(treatments) < 2 {
		return &Result{
			Payload:    entity.ResponsePayload{Error: "Please specify at least two treatments to compare"},
			Confidence: incompleteConfidence,
		}, nil
	}

	text, err := g.call(ctx, fmt.Sprintf(constant.TreatmentComparisonPrompt, strings.Join(treatments, ", "), req.Query.Text))
	if err != nil {
		return nil, err
	}

	c := &entity.TreatmentComparison{
		Id:           uuid.NewString(),
		ResearcherId: req.ResearcherId,
		ProjectId:    req.ProjectId,
		Treatments:   treatments,
		Sources:      []string{"LLM analysis", "Medical literature"},
		CreatedAt:    g.now().UTC(),
	}
	var parsed comparisonJSON
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err == nil {
		c.DiseaseCondition = parsed.DiseaseCondition
		c.EfficacyMetrics = parsed.EfficacyMetrics
		c.SideEffects = parsed.SideEffects
		c.PopulationDifferences = parsed.PopulationDifferences
		c.Recommendation = parsed.Recommendation
		c.ConfidenceLevel = parsed.ConfidenceLevel
	} else {
		c.Recommendation = truncate(strings.TrimSpace(text), maxRecommendation)
		c.ConfidenceLevel = "medium"
	}
	if c.DiseaseCondition == "" {
		c.DiseaseCondition = req.DiseaseFocus
	}
	if c.ConfidenceLevel == "" {
		c.ConfidenceLevel = "medium"
	}

	return &Result{
		Payload:    entity.ResponsePayload{Text: c.Recommendation, Comparisons: []*entity.TreatmentComparison{c}},
		Confidence: comparisonConfidence,
	}, nil
}

// Degraded builds the placeholder used when generation failed or timed out.
func Degraded(err error) *Result {
	p := entity.ResponsePayload{Text: DegradedText}
	if err != nil {
		p.Error = err.Error()
	}
	return &Result{Payload: p, Confidence: DegradedConfidence}
}

func contextBlock(snippets []string) string {
	if len(snippets) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Context from prior research:\n")
	for _, s := range snippets {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
