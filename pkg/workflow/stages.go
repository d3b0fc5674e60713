package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"research-assistant-be/internal/constant"
	"research-assistant-be/internal/entity"
	"research-assistant-be/pkg/apperr"
	"research-assistant-be/pkg/classifier"
	"research-assistant-be/pkg/gatekeeper"
	"research-assistant-be/pkg/generation"
	"research-assistant-be/pkg/shortterm"

	"github.com/google/uuid"
)

const (
	minMatchWordLen   = 4
	retrievalScore    = 1.0
	autoApprovedNote  = "auto-approved"
	projectStatusOpen = "active"
)

var errEmptyResult = errors.New("generator returned no content")

// FilterInput drops current queries that are not informational.
func (w *Workflow) FilterInput(_ context.Context, s *entity.ResearchSession, c *Cycle) error {
	kept := make([]*entity.Query, 0, len(s.CurrentQueries))
	for _, q := range s.CurrentQueries {
		if w.filter.IsInformational(q.Text) {
			kept = append(kept, q)
			continue
		}
		c.Dropped = append(c.Dropped, q)
	}
	s.CurrentQueries = kept
	return nil
}

// ProcessQuery classifies every remaining query and orders the batch by priority.
func (w *Workflow) ProcessQuery(_ context.Context, s *entity.ResearchSession, c *Cycle) error {
	now := w.now().UTC()
	for _, q := range s.CurrentQueries {
		classifier.Apply(q)
		q.Status = entity.QueryStatusProcessing
		if q.MedicalScore == 0 {
			q.MedicalScore = w.filter.MedicalScore(q.Text)
		}
		s.ActiveConversation = append(s.ActiveConversation, &entity.ConversationTurn{
			Role:      entity.TurnRoleUser,
			Content:   q.Text,
			QueryId:   q.Id,
			CreatedAt: now,
		})
	}
	s.CurrentQueries = classifier.Prioritize(s.CurrentQueries, nil)
	s.MessageCount += len(s.CurrentQueries)
	if len(s.CurrentQueries) > 0 {
		s.Status = entity.SessionStatusProcessing
	}
	c.Processed = len(s.CurrentQueries)
	return nil
}

// RetrieveMemory appends one memory_retrieval record holding the long-term
// summaries and comparisons relevant to the current queries.
func (w *Workflow) RetrieveMemory(_ context.Context, s *entity.ResearchSession, c *Cycle) error {
	focus := strings.ToLower(strings.TrimSpace(s.DiseaseFocus))

	var summaries []*entity.LiteratureSummary
	seenSummary := map[string]bool{}
	var comparisons []*entity.TreatmentComparison
	seenComparison := map[string]bool{}

	for _, q := range s.CurrentQueries {
		words := matchWords(q.Text)
		lowerQuery := strings.ToLower(q.Text)

		for _, ls := range s.LiteratureSummaries {
			if len(summaries) >= maxRetrievedSummaries || seenSummary[ls.Id] {
				continue
			}
			if summaryMatches(ls, focus, words) {
				seenSummary[ls.Id] = true
				summaries = append(summaries, ls)
			}
		}
		for _, tc := range s.ComparativeFindings {
			if len(comparisons) >= maxRetrievedComparisons || seenComparison[tc.Id] {
				continue
			}
			if comparisonMatches(tc, focus, lowerQuery) {
				seenComparison[tc.Id] = true
				comparisons = append(comparisons, tc)
			}
		}
	}
	if len(summaries) == 0 && len(comparisons) == 0 {
		return nil
	}

	record := &entity.Response{
		Id:           uuid.NewString(),
		ResponseType: entity.ResponseTypeMemoryRetrieval,
		Payload:      entity.ResponsePayload{Summaries: summaries, Comparisons: comparisons},
		Confidence:   retrievalScore,
		CreatedAt:    w.now().UTC(),
	}
	s.SessionResponses = append(s.SessionResponses, record)
	c.Retrieved = record

	for _, ls := range summaries {
		c.snippets = append(c.snippets, fmt.Sprintf("%s: %s", ls.Title, ls.FirstFinding()))
	}
	for _, tc := range comparisons {
		c.snippets = append(c.snippets, fmt.Sprintf("%s: %s", strings.Join(tc.Treatments, " vs "), tc.Recommendation))
	}
	return nil
}

// GenerateResponse asks the generator for each query under a timeout. Failures
// and empty answers become degraded responses so the cycle always completes.
func (w *Workflow) GenerateResponse(ctx context.Context, s *entity.ResearchSession, c *Cycle) error {
	for _, q := range s.CurrentQueries {
		res, degraded := w.generate(ctx, s, q, c.snippets)

		r := &entity.Response{
			Id:           uuid.NewString(),
			QueryId:      q.Id,
			ResponseType: string(q.Type),
			Payload:      res.Payload,
			Confidence:   res.Confidence,
			Priority:     q.Priority,
			Degraded:     degraded,
			CreatedAt:    w.now().UTC(),
		}
		ct := gatekeeper.ContentTypeFor(q.Type)
		r.RequiresApproval = w.gate.RequiresApproval(gatekeeper.ContentFromResponse(r), ct)
		if r.RequiresApproval {
			q.Status = entity.QueryStatusRequiresApproval
		} else {
			q.Status = entity.QueryStatusCompleted
		}

		s.SessionResponses = append(s.SessionResponses, r)
		s.ActiveConversation = append(s.ActiveConversation, &entity.ConversationTurn{
			Role:      entity.TurnRoleAssistant,
			Content:   assistantText(r),
			QueryId:   q.Id,
			CreatedAt: r.CreatedAt,
		})
		c.Responses = append(c.Responses, r)
		if degraded {
			c.Degraded++
			continue
		}
		c.Summaries = append(c.Summaries, res.Payload.Summaries...)
		c.Comparisons = append(c.Comparisons, res.Payload.Comparisons...)
	}
	return nil
}

func (w *Workflow) generate(ctx context.Context, s *entity.ResearchSession, q *entity.Query, snippets []string) (*generation.Result, bool) {
	genCtx, cancel := context.WithTimeout(ctx, w.generationTimeout)
	defer cancel()

	start := time.Now()
	res, err := w.generator.Generate(genCtx, generation.Request{
		Query:        q,
		ResearcherId: s.ResearcherId,
		ProjectId:    s.ProjectId,
		DiseaseFocus: s.DiseaseFocus,
		Context:      snippets,
	})
	if w.metrics != nil {
		w.metrics.GenerationDuration.WithLabelValues(string(q.Type)).Observe(time.Since(start).Seconds())
	}
	if err == nil && (res == nil || emptyPayload(res.Payload)) {
		err = apperr.GenerationUnavailable("Generate", errEmptyResult)
	}
	if err != nil {
		w.logger.Warn("WORKFLOW", "Generation unavailable, using degraded response", map[string]interface{}{
			"session_id": s.Id,
			"query_id":   q.Id,
			"error":      err.Error(),
		})
		if w.metrics != nil {
			w.metrics.GenerationTotal.WithLabelValues("degraded").Inc()
		}
		return generation.Degraded(err), true
	}
	if w.metrics != nil {
		w.metrics.GenerationTotal.WithLabelValues("ok").Inc()
	}
	return res, false
}

// HumanApproval opens an approval request for every response gated this cycle.
func (w *Workflow) HumanApproval(_ context.Context, s *entity.ResearchSession, c *Cycle) error {
	now := w.now().UTC()
	for _, r := range c.Responses {
		if !r.RequiresApproval {
			continue
		}
		ct := gatekeeper.ContentTypeFor(entity.QueryType(r.ResponseType))
		req := w.gate.NewRequest(s, r, ct, now)
		r.ApprovalId = req.Id

		if w.autoApprove && w.gate.AutoApprovalEligible(gatekeeper.ContentFromResponse(r), ct) {
			if err := gatekeeper.Decide(req, gatekeeper.DecisionApproved, autoApprovedNote, constant.ReviewerSystem, now); err != nil {
				return err
			}
			req.AutoApproved = true
			s.ApprovedSummaries = append(s.ApprovedSummaries, req)
			markQuery(s, r.QueryId, entity.QueryStatusCompleted)
		} else {
			s.PendingApprovals = append(s.PendingApprovals, req)
		}
		c.Approvals = append(c.Approvals, req)
		if w.metrics != nil {
			w.metrics.ApprovalsCreatedTotal.WithLabelValues(string(ct)).Inc()
		}
	}
	return nil
}

// UpdateMemory records project activity, folds new findings into long-term
// memory and clears the processed queries. The result must validate.
func (w *Workflow) UpdateMemory(_ context.Context, s *entity.ResearchSession, c *Cycle) error {
	now := w.now().UTC()

	var project *entity.ProjectRecord
	for _, p := range s.ResearchProjects {
		if p.ProjectId == s.ProjectId {
			project = p
			break
		}
	}
	if project == nil {
		project = &entity.ProjectRecord{
			ProjectId:    s.ProjectId,
			ResearcherId: s.ResearcherId,
			CreatedAt:    now,
		}
		s.ResearchProjects = append(s.ResearchProjects, project)
	}
	project.DiseaseFocus = s.DiseaseFocus
	project.SessionId = s.Id
	project.Status = projectStatusOpen
	project.QueryCount += c.Processed
	project.LastUpdated = now

	s.MergeLiterature(c.Summaries)
	s.MergeComparisons(c.Comparisons)

	s.CurrentQueries = []*entity.Query{}
	s.Status = entity.SessionStatusActive
	s.LastUpdated = now

	if err := s.Validate(); err != nil {
		return apperr.StateInvariant("workflow.update_memory", err)
	}
	return nil
}

// TrimMemory bounds the short-term lists.
func (w *Workflow) TrimMemory(_ context.Context, s *entity.ResearchSession, c *Cycle) error {
	c.Trim = shortterm.Trim(s, w.limits)
	if c.Trim.Trimmed() && w.metrics != nil {
		w.metrics.MemoryTrimsTotal.Inc()
	}
	return nil
}

func summaryMatches(ls *entity.LiteratureSummary, focus string, words []string) bool {
	if focus != "" && strings.Contains(strings.ToLower(ls.TreatmentFocus), focus) {
		return true
	}
	finding := strings.ToLower(ls.FirstFinding())
	if finding == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(finding, w) {
			return true
		}
	}
	return false
}

func comparisonMatches(tc *entity.TreatmentComparison, focus, lowerQuery string) bool {
	if focus != "" && strings.Contains(strings.ToLower(tc.DiseaseCondition), focus) {
		return true
	}
	for _, t := range tc.Treatments {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(lowerQuery, t) {
			return true
		}
	}
	return false
}

// matchWords returns the lower-cased query words longer than three characters.
func matchWords(text string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,;:?!()\"'")
		if len([]rune(f)) >= minMatchWordLen {
			out = append(out, f)
		}
	}
	return out
}

func emptyPayload(p entity.ResponsePayload) bool {
	return strings.TrimSpace(p.Text) == "" && len(p.Summaries) == 0 && len(p.Comparisons) == 0 && p.Error == ""
}

func assistantText(r *entity.Response) string {
	if r.Payload.Text != "" {
		return r.Payload.Text
	}
	if r.Payload.Error != "" {
		return r.Payload.Error
	}
	if n := len(r.Payload.Summaries); n > 0 {
		return fmt.Sprintf("Found %d relevant articles", n)
	}
	return ""
}

func markQuery(s *entity.ResearchSession, queryId string, status entity.QueryStatus) {
	for _, q := range s.CurrentQueries {
		if q.Id == queryId {
			q.Status = status
			return
		}
	}
}
