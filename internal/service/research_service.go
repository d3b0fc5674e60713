package service

import (
	"context"
	"encoding/json"
	"time"

	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/pkg/locker"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/metrics"
	"research-assistant-be/pkg/apperr"
	"research-assistant-be/pkg/events"
	"research-assistant-be/pkg/filter"
	"research-assistant-be/pkg/workflow"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("research-assistant-be/service")

type IResearchService interface {
	StartSession(ctx context.Context, researcherID string, req *dto.StartSessionRequest) (*dto.SessionStatusResponse, error)
	// ProcessQueries filters texts, queues the accepted ones and runs one cycle
	// over everything queued.
	ProcessQueries(ctx context.Context, researcherID, sessionID string, texts []string) (*dto.ProcessQueriesResponse, error)
	// AddQuery queues a query for the next cycle without running it.
	AddQuery(ctx context.Context, researcherID, sessionID, text string) (*dto.ProcessQueriesResponse, error)
	GetSessionStatus(ctx context.Context, researcherID, sessionID string) (*dto.SessionStatusResponse, error)
	GenerateReport(ctx context.Context, researcherID, sessionID string) (*dto.SessionReport, error)
	CleanupSessions(ctx context.Context, days int) (int, error)

	QueryLiterature(ctx context.Context, researcherID string, q dto.LiteratureQuery) (*dto.LiteratureQueryResponse, error)
	ResearcherStats(ctx context.Context, researcherID string) (*entity.ResearcherStats, error)
	UpdateResearcherNotes(ctx context.Context, researcherID, contentID, notes string) error
}

type researchService struct {
	store    IMemoryStore
	workflow *workflow.Workflow
	filter   *filter.Filter
	locker   locker.Locker
	findings IPublisherService
	events   events.Publisher
	delivery ReviewDelivery
	logger   logger.ILogger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewResearchService(
	store IMemoryStore,
	wf *workflow.Workflow,
	f *filter.Filter,
	lk locker.Locker,
	findings IPublisherService,
	eventPublisher events.Publisher,
	delivery ReviewDelivery,
	log logger.ILogger,
	m *metrics.Metrics,
) IResearchService {
	return &researchService{
		store:    store,
		workflow: wf,
		filter:   f,
		locker:   lk,
		findings: findings,
		events:   eventPublisher,
		delivery: delivery,
		logger:   log,
		metrics:  m,
		now:      time.Now,
	}
}

func sessionLockKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *researchService) StartSession(ctx context.Context, researcherID string, req *dto.StartSessionRequest) (*dto.SessionStatusResponse, error) {
	now := s.now().UTC()
	session, err := entity.NewResearchSession(researcherID, req.ProjectId, req.DiseaseFocus, now)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "StartSession", err)
	}

	project := &entity.ProjectRecord{
		ProjectId:    session.ProjectId,
		ResearcherId: session.ResearcherId,
		CreatedAt:    now,
	}
	existing, err := s.store.FindProject(ctx, session.ProjectId)
	switch {
	case err == nil && existing.ResearcherId != session.ResearcherId:
		return nil, apperr.Conflict("StartSession", "project %s belongs to another researcher", session.ProjectId)
	case err == nil:
		project = existing
	case !apperr.IsKind(err, apperr.KindNotFound):
		return nil, err
	}
	project.DiseaseFocus = session.DiseaseFocus
	project.SessionId = session.Id
	project.Status = entity.SessionStatusActive
	project.LastUpdated = now
	session.ResearchProjects = append(session.ResearchProjects, project)

	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info("RESEARCH", "Session started", map[string]interface{}{
		"session_id":    session.Id,
		"researcher_id": session.ResearcherId,
		"project_id":    session.ProjectId,
	})
	return toStatus(session), nil
}

func (s *researchService) AddQuery(ctx context.Context, researcherID, sessionID, text string) (*dto.ProcessQueriesResponse, error) {
	return s.submit(ctx, researcherID, sessionID, []string{text}, false)
}

func (s *researchService) ProcessQueries(ctx context.Context, researcherID, sessionID string, texts []string) (*dto.ProcessQueriesResponse, error) {
	return s.submit(ctx, researcherID, sessionID, texts, true)
}

func (s *researchService) submit(ctx context.Context, researcherID, sessionID string, texts []string, run bool) (*dto.ProcessQueriesResponse, error) {
	ctx, span := tracer.Start(ctx, "research.submit")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID), attribute.Int("texts", len(texts)), attribute.Bool("run", run))

	now := s.now().UTC()
	queries := make([]*entity.Query, 0, len(texts))
	for _, t := range texts {
		q, err := entity.NewQuery(t, now)
		if err != nil {
			// blank text is rejected by the filter as too short below
			q = &entity.Query{Text: t}
		}
		queries = append(queries, q)
	}
	valid, results := s.filter.FilterBatch(queries)

	resp := &dto.ProcessQueriesResponse{
		SessionId: sessionID,
		Accepted:  len(valid),
		Filtered:  []dto.FilteredQuery{},
		Responses: []*entity.Response{},
		Approvals: []*dto.ApprovalResponse{},
	}
	for _, r := range results {
		if s.metrics != nil {
			s.metrics.FilterResultsTotal.WithLabelValues(string(r.Reason)).Inc()
		}
		if !r.Accepted {
			resp.Filtered = append(resp.Filtered, dto.FilteredQuery{
				Query:        r.OriginalText,
				Reason:       string(r.Reason),
				MedicalScore: r.MedicalScore,
			})
		}
	}

	unlock, err := s.locker.Lock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.store.LoadSessionForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(session, researcherID); err != nil {
		return nil, err
	}

	for _, r := range results {
		session.FilterStats.Record(r.Accepted, string(r.Reason))
	}
	session.CurrentQueries = append(session.CurrentQueries, valid...)

	var cycle *workflow.Cycle
	if run {
		s.loadLongTermMemory(ctx, session)

		cycle, err = s.workflow.Run(ctx, session)
		if err != nil {
			return nil, err
		}
	}

	// Queued and fully filtered submissions touch the session too.
	session.LastUpdated = s.now().UTC()

	// The cycle always completes once started, so persistence must outlive the request.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.store.SaveSession(persistCtx, session); err != nil {
		return nil, err
	}

	if cycle != nil && !cycle.Empty {
		s.afterCycle(persistCtx, session, cycle)
		resp.Responses = cycle.Responses
		resp.Degraded = cycle.Degraded
		resp.MemoryTrimmed = cycle.Trim.Trimmed()
		for _, a := range cycle.Approvals {
			resp.Approvals = append(resp.Approvals, toApprovalResponse(a))
		}
	}
	resp.Status = toStatus(session)
	return resp, nil
}

// loadLongTermMemory folds the newest stored findings for this project into the
// session so retrieval can see them.
func (s *researchService) loadLongTermMemory(ctx context.Context, session *entity.ResearchSession) {
	summaries, err := s.store.QueryLiteratureSummaries(ctx, session.ResearcherId, session.ProjectId, "")
	if err != nil {
		s.logger.Warn("RESEARCH", "Long-term summaries unavailable", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
	} else {
		session.MergeLiterature(summaries)
	}
	comparisons, err := s.store.QueryTreatmentComparisons(ctx, session.ResearcherId, session.ProjectId, "")
	if err != nil {
		s.logger.Warn("RESEARCH", "Long-term comparisons unavailable", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
	} else {
		session.MergeComparisons(comparisons)
	}
}

// afterCycle hands findings to the long-term consumer and announces the cycle.
// Failures here are logged; the session is already saved.
func (s *researchService) afterCycle(ctx context.Context, session *entity.ResearchSession, cycle *workflow.Cycle) {
	if len(cycle.Summaries) > 0 || len(cycle.Comparisons) > 0 {
		payload, err := json.Marshal(dto.FindingsMessage{
			SessionId:    session.Id,
			ResearcherId: session.ResearcherId,
			ProjectId:    session.ProjectId,
			Summaries:    cycle.Summaries,
			Comparisons:  cycle.Comparisons,
		})
		if err == nil {
			err = s.findings.Publish(ctx, payload)
		}
		if err != nil {
			s.logger.Error("RESEARCH", "Failed to publish findings", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		}
	}

	now := s.now().UTC()
	// Publish errors are logged by the event publisher.
	_ = s.events.Publish(ctx, events.New(events.SessionCycleCompleted, map[string]interface{}{
		"session_id":    session.Id,
		"researcher_id": session.ResearcherId,
		"project_id":    session.ProjectId,
		"processed":     cycle.Processed,
		"dropped":       len(cycle.Dropped),
		"degraded":      cycle.Degraded,
		"approvals":     len(cycle.Approvals),
	}, now))

	for _, a := range cycle.Approvals {
		_ = s.events.Publish(ctx, events.New(events.ApprovalRequested, approvalEventData(a), now))
		if s.delivery != nil {
			s.delivery.Broadcast(notificationFor(events.ApprovalRequested, a, "New content awaiting review"))
		}
	}
}

func (s *researchService) GetSessionStatus(ctx context.Context, researcherID, sessionID string) (*dto.SessionStatusResponse, error) {
	session, err := s.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(session, researcherID); err != nil {
		return nil, err
	}
	return toStatus(session), nil
}

func (s *researchService) GenerateReport(ctx context.Context, researcherID, sessionID string) (*dto.SessionReport, error) {
	session, err := s.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(session, researcherID); err != nil {
		return nil, err
	}

	approvals := make([]*entity.ApprovalRequest, 0, len(session.PendingApprovals)+len(session.ApprovedSummaries)+len(session.FlaggedContent))
	approvals = append(approvals, session.PendingApprovals...)
	approvals = append(approvals, session.ApprovedSummaries...)
	approvals = append(approvals, session.FlaggedContent...)

	return &dto.SessionReport{
		GeneratedAt:         s.now().UTC(),
		Session:             toStatus(session),
		Projects:            session.ResearchProjects,
		Responses:           session.SessionResponses,
		Conversation:        session.ActiveConversation,
		LiteratureSummaries: session.LiteratureSummaries,
		Comparisons:         session.ComparativeFindings,
		Approvals:           summarize(approvals),
		FilterStats:         session.FilterStats,
	}, nil
}

func (s *researchService) CleanupSessions(ctx context.Context, days int) (int, error) {
	return s.store.CleanupSessions(ctx, days)
}

func (s *researchService) QueryLiterature(ctx context.Context, researcherID string, q dto.LiteratureQuery) (*dto.LiteratureQueryResponse, error) {
	summaries, err := s.store.QueryLiteratureSummaries(ctx, researcherID, q.ProjectId, q.Focus)
	if err != nil {
		return nil, err
	}
	comparisons, err := s.store.QueryTreatmentComparisons(ctx, researcherID, q.ProjectId, q.Focus)
	if err != nil {
		return nil, err
	}
	return &dto.LiteratureQueryResponse{Summaries: summaries, Comparisons: comparisons}, nil
}

func (s *researchService) ResearcherStats(ctx context.Context, researcherID string) (*entity.ResearcherStats, error) {
	return s.store.ResearcherStats(ctx, researcherID)
}

func (s *researchService) UpdateResearcherNotes(ctx context.Context, researcherID, contentID, notes string) error {
	return s.store.UpdateResearcherNotes(ctx, researcherID, contentID, notes)
}

// checkOwner hides sessions of other researchers. An empty researcher id skips the check.
func checkOwner(session *entity.ResearchSession, researcherID string) error {
	if researcherID != "" && session.ResearcherId != researcherID {
		return apperr.NotFound("session", "session %s not found", session.Id)
	}
	return nil
}

func toStatus(s *entity.ResearchSession) *dto.SessionStatusResponse {
	return &dto.SessionStatusResponse{
		SessionId:         s.Id,
		ResearcherId:      s.ResearcherId,
		ProjectId:         s.ProjectId,
		DiseaseFocus:      s.DiseaseFocus,
		Status:            s.Status,
		MessageCount:      s.MessageCount,
		QueuedQueries:     len(s.CurrentQueries),
		ResponseCount:     len(s.SessionResponses),
		ConversationTurns: len(s.ActiveConversation),
		PendingApprovals:  countPending(s.PendingApprovals),
		ApprovedCount:     len(s.ApprovedSummaries),
		FlaggedCount:      len(s.FlaggedContent),
		MemoryTrimmed:     s.MemoryTrimmed,
		CreatedAt:         s.CreatedAt,
		LastUpdated:       s.LastUpdated,
	}
}

func countPending(list []*entity.ApprovalRequest) int {
	n := 0
	for _, a := range list {
		if !a.Decided() {
			n++
		}
	}
	return n
}
