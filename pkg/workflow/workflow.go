package workflow

import (
	"context"
	"errors"
	"time"

	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/metrics"
	"research-assistant-be/pkg/apperr"
	"research-assistant-be/pkg/filter"
	"research-assistant-be/pkg/gatekeeper"
	"research-assistant-be/pkg/generation"
	"research-assistant-be/pkg/shortterm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultGenerationTimeout = 60 * time.Second

	maxRetrievedSummaries   = 3
	maxRetrievedComparisons = 2
)

var tracer = otel.Tracer("research-assistant-be/workflow")

// Cycle is the record of one pass over a session: where it got to and what each
// stage produced. The session itself is mutated in place.
type Cycle struct {
	SessionId   string
	State       State
	Visited     []State
	Empty       bool
	Dropped     []*entity.Query
	Processed   int
	Retrieved   *entity.Response
	Responses   []*entity.Response
	Approvals   []*entity.ApprovalRequest
	Summaries   []*entity.LiteratureSummary
	Comparisons []*entity.TreatmentComparison
	Degraded    int
	Trim        shortterm.Outcome
	StartedAt   time.Time
	FinishedAt  time.Time

	snippets []string
}

// Stage runs one state of the cycle against the session.
type Stage func(ctx context.Context, s *entity.ResearchSession, c *Cycle) error

type Workflow struct {
	filter            *filter.Filter
	gate              *gatekeeper.Gatekeeper
	generator         generation.Generator
	limits            shortterm.Limits
	generationTimeout time.Duration
	autoApprove       bool
	now               func() time.Time
	logger            logger.ILogger
	metrics           *metrics.Metrics
}

type Option func(*Workflow)

func WithLimits(l shortterm.Limits) Option {
	return func(w *Workflow) { w.limits = l }
}

func WithGenerationTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.generationTimeout = d
		}
	}
}

// WithAutoApproval lets eligible gated responses be approved by the system at creation.
func WithAutoApproval(enabled bool) Option {
	return func(w *Workflow) { w.autoApprove = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func WithLogger(l logger.ILogger) Option {
	return func(w *Workflow) { w.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) { w.metrics = m }
}

func New(f *filter.Filter, g *gatekeeper.Gatekeeper, gen generation.Generator, opts ...Option) *Workflow {
	w := &Workflow{
		filter:            f,
		gate:              g,
		generator:         gen,
		limits:            shortterm.DefaultLimits(),
		generationTimeout: defaultGenerationTimeout,
		now:               time.Now,
		logger:            logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Stage returns the function that runs state st.
func (w *Workflow) Stage(st State) Stage {
	switch st {
	case StateFilterInput:
		return w.FilterInput
	case StateProcessQuery:
		return w.ProcessQuery
	case StateRetrieveMemory:
		return w.RetrieveMemory
	case StateGenerateResponse:
		return w.GenerateResponse
	case StateHumanApproval:
		return w.HumanApproval
	case StateUpdateMemory:
		return w.UpdateMemory
	case StateTrimMemory:
		return w.TrimMemory
	default:
		return nil
	}
}

// Run takes the session through every stage in order. A session with no current
// queries returns immediately untouched. On error the remaining stages are skipped
// and the session must not be persisted.
func (w *Workflow) Run(ctx context.Context, s *entity.ResearchSession) (*Cycle, error) {
	c := &Cycle{SessionId: s.Id, State: StateFilterInput, StartedAt: w.now().UTC()}
	if len(s.CurrentQueries) == 0 {
		c.Empty = true
		c.State = StateDone
		c.FinishedAt = c.StartedAt
		w.countCycle("empty")
		return c, nil
	}

	ctx, span := tracer.Start(ctx, "workflow.Run")
	span.SetAttributes(attribute.String("session.id", s.Id), attribute.Int("queries", len(s.CurrentQueries)))
	defer span.End()

	for !c.State.Terminal() {
		if err := w.runStage(ctx, s, c); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			w.logger.Error("WORKFLOW", "Cycle aborted", map[string]interface{}{
				"session_id": s.Id,
				"state":      c.State.String(),
				"error":      err.Error(),
			})
			w.countCycle("failed")
			return c, err
		}
		c.Visited = append(c.Visited, c.State)
		c.State = Next(c.State)
	}
	c.FinishedAt = w.now().UTC()

	w.countCycle("completed")
	if w.metrics != nil {
		w.metrics.CycleDuration.Observe(c.FinishedAt.Sub(c.StartedAt).Seconds())
	}
	w.logger.Info("WORKFLOW", "Cycle completed", map[string]interface{}{
		"session_id": s.Id,
		"processed":  c.Processed,
		"dropped":    len(c.Dropped),
		"responses":  len(c.Responses),
		"approvals":  len(c.Approvals),
		"degraded":   c.Degraded,
		"trimmed":    c.Trim.Trimmed(),
	})
	return c, nil
}

func (w *Workflow) runStage(ctx context.Context, s *entity.ResearchSession, c *Cycle) error {
	stage := w.Stage(c.State)
	if stage == nil {
		return apperr.StateInvariant("workflow", errors.New("no stage for state "+c.State.String()))
	}
	ctx, span := tracer.Start(ctx, "workflow."+c.State.String())
	defer span.End()

	if err := stage(ctx, s, c); err != nil {
		if apperr.KindOf(err) == "" {
			return apperr.StateInvariant("workflow."+c.State.String(), err)
		}
		return err
	}
	return nil
}

func (w *Workflow) countCycle(outcome string) {
	if w.metrics != nil {
		w.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	}
}
