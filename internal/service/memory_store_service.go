package service

import (
	"context"
	"errors"
	"time"

	"research-assistant-be/internal/constant"
	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/metrics"
	"research-assistant-be/internal/repository/contract"
	"research-assistant-be/internal/repository/memory"
	"research-assistant-be/internal/repository/specification"
	"research-assistant-be/internal/repository/unitofwork"
	"research-assistant-be/pkg/apperr"
)

// IMemoryStore is the durable side of the pipeline: sessions, long-term findings,
// projects and approval rows.
type IMemoryStore interface {
	SaveSession(ctx context.Context, session *entity.ResearchSession) error
	// SaveReviewedSession saves the session and approves the reviewed findings
	// in the same transaction.
	SaveReviewedSession(ctx context.Context, session *entity.ResearchSession, summaries []*entity.LiteratureSummary, comparisons []*entity.TreatmentComparison) error
	// LoadSession reports every failure as not found.
	LoadSession(ctx context.Context, sessionID string) (*entity.ResearchSession, error)
	// LoadSessionStrict keeps storage failures distinct from a missing session.
	LoadSessionStrict(ctx context.Context, sessionID string) (*entity.ResearchSession, error)
	// LoadSessionForUpdate bypasses the cache. Callers hold the session's cycle slot.
	LoadSessionForUpdate(ctx context.Context, sessionID string) (*entity.ResearchSession, error)
	FindProject(ctx context.Context, projectID string) (*entity.ProjectRecord, error)

	SaveLiteratureSummary(ctx context.Context, summary *entity.LiteratureSummary) error
	SaveTreatmentComparison(ctx context.Context, comparison *entity.TreatmentComparison) error
	QueryLiteratureSummaries(ctx context.Context, researcherID, projectID, focus string) ([]*entity.LiteratureSummary, error)
	QueryTreatmentComparisons(ctx context.Context, researcherID, projectID, condition string) ([]*entity.TreatmentComparison, error)
	UpdateResearcherNotes(ctx context.Context, researcherID, contentID, notes string) error

	FindApproval(ctx context.Context, approvalID string) (*entity.ApprovalRequest, error)
	ListApprovals(ctx context.Context, specs ...specification.Specification) ([]*entity.ApprovalRequest, error)

	CleanupSessions(ctx context.Context, days int) (int, error)
	ResearcherStats(ctx context.Context, researcherID string) (*entity.ResearcherStats, error)
}

type memoryStore struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.SessionCache
	logger     logger.ILogger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewMemoryStore(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.SessionCache,
	log logger.ILogger,
	m *metrics.Metrics,
) IMemoryStore {
	return &memoryStore{
		uowFactory: uowFactory,
		cache:      cache,
		logger:     log,
		metrics:    m,
		now:        time.Now,
	}
}

// SaveSession writes the session row, its approval rows and its project row in
// one transaction.
func (s *memoryStore) SaveSession(ctx context.Context, session *entity.ResearchSession) error {
	return s.saveSession(ctx, "SaveSession", session, nil, nil)
}

func (s *memoryStore) SaveReviewedSession(ctx context.Context, session *entity.ResearchSession, summaries []*entity.LiteratureSummary, comparisons []*entity.TreatmentComparison) error {
	return s.saveSession(ctx, "SaveReviewedSession", session, summaries, comparisons)
}

func (s *memoryStore) saveSession(ctx context.Context, op string, session *entity.ResearchSession, summaries []*entity.LiteratureSummary, comparisons []*entity.TreatmentComparison) error {
	if err := session.Validate(); err != nil {
		return apperr.Wrap(apperr.KindValidation, op, err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperr.Storage(op, err)
	}
	defer uow.Rollback()

	if err := approveFindings(ctx, uow, summaries, comparisons); err != nil {
		s.cache.Delete(session.Id)
		return apperr.Storage(op, err)
	}
	if err := writeSession(ctx, uow, session); err != nil {
		s.cache.Delete(session.Id)
		return apperr.Storage(op, err)
	}
	if err := uow.Commit(); err != nil {
		s.cache.Delete(session.Id)
		return apperr.Storage(op, err)
	}
	s.cache.Save(session)
	return nil
}

func writeSession(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ResearchSession) error {
	if err := uow.ResearchSessionRepository().Upsert(ctx, session); err != nil {
		return err
	}

	approvals := uow.ApprovalRequestRepository()
	for _, list := range [][]*entity.ApprovalRequest{session.PendingApprovals, session.ApprovedSummaries, session.FlaggedContent} {
		for _, a := range list {
			if err := approvals.Upsert(ctx, a); err != nil {
				return err
			}
		}
	}

	for _, p := range session.ResearchProjects {
		if p.ProjectId != session.ProjectId {
			continue
		}
		if err := uow.ResearchProjectRepository().Upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// approveFindings stores reviewed findings with approved set. Rows written
// earlier keep their created_at and only gain the flag; rows approved before
// are left as they are.
func approveFindings(ctx context.Context, uow unitofwork.UnitOfWork, summaries []*entity.LiteratureSummary, comparisons []*entity.TreatmentComparison) error {
	for _, ls := range summaries {
		ls.Approved = true
		if err := uow.LiteratureSummaryRepository().Upsert(ctx, ls); err != nil && !errors.Is(err, contract.ErrApproved) {
			return err
		}
		if err := uow.LiteratureSummaryRepository().MarkApproved(ctx, ls.Id); err != nil {
			return err
		}
	}
	for _, tc := range comparisons {
		tc.Approved = true
		if err := uow.TreatmentComparisonRepository().Upsert(ctx, tc); err != nil && !errors.Is(err, contract.ErrApproved) {
			return err
		}
		if err := uow.TreatmentComparisonRepository().MarkApproved(ctx, tc.Id); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryStore) LoadSession(ctx context.Context, sessionID string) (*entity.ResearchSession, error) {
	session, err := s.LoadSessionStrict(ctx, sessionID)
	if err != nil {
		if !apperr.IsKind(err, apperr.KindNotFound) {
			s.logger.Warn("MEMORY", "Session load failed, reporting not found", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		return nil, apperr.NotFound("LoadSession", "session %s not found", sessionID)
	}
	return session, nil
}

func (s *memoryStore) LoadSessionStrict(ctx context.Context, sessionID string) (*entity.ResearchSession, error) {
	if cached, ok := s.cache.Get(sessionID); ok {
		s.countCache(true)
		return cached, nil
	}
	s.countCache(false)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ResearchSessionRepository().FindOne(ctx, specification.ByID{ID: sessionID})
	if err != nil {
		return nil, apperr.Storage("LoadSession", err)
	}
	if session == nil {
		return nil, apperr.NotFound("LoadSession", "session %s not found", sessionID)
	}
	s.cache.Save(session)
	return session, nil
}

func (s *memoryStore) LoadSessionForUpdate(ctx context.Context, sessionID string) (*entity.ResearchSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ResearchSessionRepository().FindOne(ctx, specification.ByID{ID: sessionID})
	if err != nil {
		return nil, apperr.Storage("LoadSessionForUpdate", err)
	}
	if session == nil {
		return nil, apperr.NotFound("LoadSessionForUpdate", "session %s not found", sessionID)
	}
	return session, nil
}

func (s *memoryStore) FindProject(ctx context.Context, projectID string) (*entity.ProjectRecord, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	p, err := uow.ResearchProjectRepository().FindOne(ctx, specification.Filter("project_id", projectID))
	if err != nil {
		return nil, apperr.Storage("FindProject", err)
	}
	if p == nil {
		return nil, apperr.NotFound("FindProject", "project %s not found", projectID)
	}
	return p, nil
}

func (s *memoryStore) SaveLiteratureSummary(ctx context.Context, summary *entity.LiteratureSummary) error {
	if err := summary.Validate(); err != nil {
		return apperr.Wrap(apperr.KindValidation, "SaveLiteratureSummary", err)
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = s.now().UTC()
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.LiteratureSummaryRepository().Upsert(ctx, summary); err != nil {
		if errors.Is(err, contract.ErrApproved) {
			return apperr.Conflict("SaveLiteratureSummary", "summary %s is approved and can no longer change", summary.Id)
		}
		return apperr.Storage("SaveLiteratureSummary", err)
	}
	return nil
}

func (s *memoryStore) SaveTreatmentComparison(ctx context.Context, comparison *entity.TreatmentComparison) error {
	if err := comparison.Validate(); err != nil {
		return apperr.Wrap(apperr.KindValidation, "SaveTreatmentComparison", err)
	}
	if comparison.CreatedAt.IsZero() {
		comparison.CreatedAt = s.now().UTC()
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TreatmentComparisonRepository().Upsert(ctx, comparison); err != nil {
		if errors.Is(err, contract.ErrApproved) {
			return apperr.Conflict("SaveTreatmentComparison", "comparison %s is approved and can no longer change", comparison.Id)
		}
		return apperr.Storage("SaveTreatmentComparison", err)
	}
	return nil
}

func (s *memoryStore) QueryLiteratureSummaries(ctx context.Context, researcherID, projectID, focus string) ([]*entity.LiteratureSummary, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	out, err := uow.LiteratureSummaryRepository().FindNewest(ctx, constant.DefaultRetrievalLimit,
		specification.ByResearcher{ResearcherID: researcherID},
		specification.ByProject{ProjectID: projectID},
		specification.TreatmentFocusContains(focus),
	)
	if err != nil {
		return nil, apperr.Storage("QueryLiteratureSummaries", err)
	}
	return out, nil
}

func (s *memoryStore) QueryTreatmentComparisons(ctx context.Context, researcherID, projectID, condition string) ([]*entity.TreatmentComparison, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	out, err := uow.TreatmentComparisonRepository().FindNewest(ctx, constant.DefaultRetrievalLimit,
		specification.ByResearcher{ResearcherID: researcherID},
		specification.ByProject{ProjectID: projectID},
		specification.DiseaseConditionContains(condition),
	)
	if err != nil {
		return nil, apperr.Storage("QueryTreatmentComparisons", err)
	}
	return out, nil
}

// UpdateResearcherNotes annotates a summary or comparison. Approved content is frozen.
// Content owned by another researcher is reported as not found.
func (s *memoryStore) UpdateResearcherNotes(ctx context.Context, researcherID, contentID, notes string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	summary, err := uow.LiteratureSummaryRepository().FindOne(ctx, specification.ByID{ID: contentID})
	if err != nil {
		return apperr.Storage("UpdateResearcherNotes", err)
	}
	if summary != nil && researcherID != "" && summary.ResearcherId != researcherID {
		summary = nil
	}
	if summary != nil {
		if summary.Approved {
			return apperr.Conflict("UpdateResearcherNotes", "summary %s is approved and can no longer be annotated", contentID)
		}
		if err := uow.LiteratureSummaryRepository().UpdateNotes(ctx, contentID, notes); err != nil {
			return apperr.Storage("UpdateResearcherNotes", err)
		}
		return nil
	}

	comparison, err := uow.TreatmentComparisonRepository().FindOne(ctx, specification.ByID{ID: contentID})
	if err != nil {
		return apperr.Storage("UpdateResearcherNotes", err)
	}
	if comparison != nil && researcherID != "" && comparison.ResearcherId != researcherID {
		comparison = nil
	}
	if comparison == nil {
		return apperr.NotFound("UpdateResearcherNotes", "no summary or comparison with id %s", contentID)
	}
	if comparison.Approved {
		return apperr.Conflict("UpdateResearcherNotes", "comparison %s is approved and can no longer be annotated", contentID)
	}
	if err := uow.TreatmentComparisonRepository().UpdateNotes(ctx, contentID, notes); err != nil {
		return apperr.Storage("UpdateResearcherNotes", err)
	}
	return nil
}

func (s *memoryStore) FindApproval(ctx context.Context, approvalID string) (*entity.ApprovalRequest, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	a, err := uow.ApprovalRequestRepository().FindOne(ctx, specification.ByID{ID: approvalID})
	if err != nil {
		return nil, apperr.Storage("FindApproval", err)
	}
	if a == nil {
		return nil, apperr.NotFound("FindApproval", "approval %s not found", approvalID)
	}
	return a, nil
}

func (s *memoryStore) ListApprovals(ctx context.Context, specs ...specification.Specification) ([]*entity.ApprovalRequest, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	out, err := uow.ApprovalRequestRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, apperr.Storage("ListApprovals", err)
	}
	return out, nil
}

// CleanupSessions deletes sessions idle for more than days and their approval rows.
func (s *memoryStore) CleanupSessions(ctx context.Context, days int) (int, error) {
	if days < 0 {
		return 0, apperr.Validation("CleanupSessions", "days must not be negative, got %d", days)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, apperr.Storage("CleanupSessions", err)
	}
	defer uow.Rollback()

	ids, err := uow.ResearchSessionRepository().DeleteUpdatedBefore(ctx, cutoff)
	if err != nil {
		return 0, apperr.Storage("CleanupSessions", err)
	}
	if len(ids) > 0 {
		if _, err := uow.ApprovalRequestRepository().DeleteBySessionIDs(ctx, ids); err != nil {
			return 0, apperr.Storage("CleanupSessions", err)
		}
	}
	if err := uow.Commit(); err != nil {
		return 0, apperr.Storage("CleanupSessions", err)
	}

	s.cache.Delete(ids...)
	if s.metrics != nil {
		s.metrics.SessionsCleaned.Add(float64(len(ids)))
	}
	s.logger.Info("MEMORY", "Session cleanup finished", map[string]interface{}{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": len(ids),
	})
	return len(ids), nil
}

func (s *memoryStore) ResearcherStats(ctx context.Context, researcherID string) (*entity.ResearcherStats, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	byResearcher := specification.ByResearcher{ResearcherID: researcherID}

	stats := &entity.ResearcherStats{ResearcherId: researcherID}
	var err error
	if stats.LiteratureCount, err = uow.LiteratureSummaryRepository().Count(ctx, byResearcher); err != nil {
		return nil, apperr.Storage("ResearcherStats", err)
	}
	if stats.ComparisonCount, err = uow.TreatmentComparisonRepository().Count(ctx, byResearcher); err != nil {
		return nil, apperr.Storage("ResearcherStats", err)
	}
	if stats.SessionCount, err = uow.ResearchSessionRepository().Count(ctx, byResearcher); err != nil {
		return nil, apperr.Storage("ResearcherStats", err)
	}

	candidates := make([]*time.Time, 0, 3)
	for _, latest := range []func(context.Context, string) (*time.Time, error){
		uow.ResearchSessionRepository().LatestActivity,
		uow.LiteratureSummaryRepository().LatestCreated,
		uow.TreatmentComparisonRepository().LatestCreated,
	} {
		t, err := latest(ctx, researcherID)
		if err != nil {
			return nil, apperr.Storage("ResearcherStats", err)
		}
		candidates = append(candidates, t)
	}
	for _, t := range candidates {
		if t != nil && (stats.LastActivity == nil || t.After(*stats.LastActivity)) {
			v := t.UTC()
			stats.LastActivity = &v
		}
	}
	return stats, nil
}

func (s *memoryStore) countCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.SessionCacheHits.Inc()
	} else {
		s.metrics.SessionCacheMisses.Inc()
	}
}
