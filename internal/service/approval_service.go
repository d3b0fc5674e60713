package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/pkg/locker"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/mailer"
	"research-assistant-be/internal/pkg/metrics"
	"research-assistant-be/internal/repository/specification"
	"research-assistant-be/pkg/apperr"
	"research-assistant-be/pkg/events"
	"research-assistant-be/pkg/gatekeeper"
)

// ReviewDelivery pushes review updates to connected clients.
// Implemented by the websocket hub.
type ReviewDelivery interface {
	Send(userID string, notification dto.ReviewNotification)
	Broadcast(notification dto.ReviewNotification)
}

type IApprovalService interface {
	ListPending(ctx context.Context, q dto.PendingApprovalsQuery) ([]*dto.ApprovalResponse, error)
	GetApproval(ctx context.Context, approvalID string) (*dto.ApprovalResponse, error)
	ProcessReview(ctx context.Context, approvalID, reviewerID string, req *dto.ReviewRequest) (*dto.ApprovalResponse, error)
	Escalate(ctx context.Context, approvalID, reason string) (*dto.ApprovalResponse, error)
	Summary(ctx context.Context, sessionID string) (*gatekeeper.Summary, error)
	// SendPendingDigest mails the reviewer mailbox a count of waiting reviews.
	SendPendingDigest(ctx context.Context) (int, error)
}

type approvalService struct {
	store         IMemoryStore
	locker        locker.Locker
	events        events.Publisher
	delivery      ReviewDelivery
	emailService  mailer.IEmailService
	reviewerEmail string
	logger        logger.ILogger
	auditLogger   logger.ILogger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewApprovalService(
	store IMemoryStore,
	lk locker.Locker,
	eventPublisher events.Publisher,
	delivery ReviewDelivery,
	emailService mailer.IEmailService,
	reviewerEmail string,
	log logger.ILogger,
	auditLog logger.ILogger,
	m *metrics.Metrics,
) IApprovalService {
	return &approvalService{
		store:         store,
		locker:        lk,
		events:        eventPublisher,
		delivery:      delivery,
		emailService:  emailService,
		reviewerEmail: reviewerEmail,
		logger:        log,
		auditLogger:   auditLog,
		metrics:       m,
		now:           time.Now,
	}
}

var priorityRank = map[entity.ApprovalPriority]int{
	entity.ApprovalPriorityUrgent: 0,
	entity.ApprovalPriorityHigh:   1,
	entity.ApprovalPriorityMedium: 2,
	entity.ApprovalPriorityLow:    3,
}

// ListPending returns undecided requests, most urgent first then oldest first.
func (s *approvalService) ListPending(ctx context.Context, q dto.PendingApprovalsQuery) ([]*dto.ApprovalResponse, error) {
	specs := []specification.Specification{
		specification.ByStatus{Status: string(entity.ApprovalStatusPending)},
	}
	if q.SessionId != "" {
		specs = append(specs, specification.BySession{SessionID: q.SessionId})
	}
	if q.Priority != "" {
		specs = append(specs, specification.Filter("priority", q.Priority))
	}

	list, err := s.store.ListApprovals(ctx, specs...)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := priorityRank[list[i].Priority], priorityRank[list[j].Priority]
		if ri != rj {
			return ri < rj
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	if q.Limit > 0 && len(list) > q.Limit {
		list = list[:q.Limit]
	}

	out := make([]*dto.ApprovalResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toApprovalResponse(a))
	}
	return out, nil
}

func (s *approvalService) GetApproval(ctx context.Context, approvalID string) (*dto.ApprovalResponse, error) {
	a, err := s.store.FindApproval(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	return toApprovalResponse(a), nil
}

// ProcessReview records a reviewer decision on the owning session. Decisions are final.
func (s *approvalService) ProcessReview(ctx context.Context, approvalID, reviewerID string, req *dto.ReviewRequest) (*dto.ApprovalResponse, error) {
	decision, err := gatekeeper.ParseDecision(req.Decision)
	if err != nil {
		return nil, err
	}

	var decided *entity.ApprovalRequest
	session, err := s.mutateSession(ctx, approvalID, func(session *entity.ResearchSession, a *entity.ApprovalRequest) (*entity.ResponsePayload, error) {
		if err := gatekeeper.Decide(a, decision, req.Feedback, reviewerID, s.now()); err != nil {
			return nil, err
		}
		moveDecided(session, a)
		decided = a
		if a.Status != entity.ApprovalStatusApproved {
			return nil, nil
		}
		markSessionFindingsApproved(session, a)
		return &a.Content, nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ApprovalsDecidedTotal.WithLabelValues(string(decided.Status)).Inc()
	}
	s.auditLogger.Info("REVIEW", "Review decision recorded", map[string]interface{}{
		"approval_id":  decided.Id,
		"session_id":   decided.SessionId,
		"reviewer_id":  reviewerID,
		"decision":     string(decided.Status),
		"content_type": string(decided.ContentType),
		"feedback":     decided.Feedback,
	})

	bg := context.WithoutCancel(ctx)
	// Publish errors are logged by the event publisher.
	_ = s.events.Publish(bg, events.New(events.ApprovalDecided, approvalEventData(decided), s.now()))
	if s.delivery != nil {
		n := notificationFor(events.ApprovalDecided, decided, fmt.Sprintf("Your %s was %s", decided.ContentType, decided.Status))
		s.delivery.Send(session.ResearcherId, n)
		s.delivery.Broadcast(n)
	}
	return toApprovalResponse(decided), nil
}

// Escalate raises a pending request to urgent and alerts the reviewer mailbox.
func (s *approvalService) Escalate(ctx context.Context, approvalID, reason string) (*dto.ApprovalResponse, error) {
	var escalated *entity.ApprovalRequest
	_, err := s.mutateSession(ctx, approvalID, func(session *entity.ResearchSession, a *entity.ApprovalRequest) (*entity.ResponsePayload, error) {
		if err := gatekeeper.Escalate(a, reason); err != nil {
			return nil, err
		}
		escalated = a
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ApprovalsEscalated.Inc()
	}
	s.auditLogger.Warn("REVIEW", "Approval escalated", map[string]interface{}{
		"approval_id": escalated.Id,
		"session_id":  escalated.SessionId,
		"reason":      reason,
	})

	bg := context.WithoutCancel(ctx)
	// Publish errors are logged by the event publisher.
	_ = s.events.Publish(bg, events.New(events.ApprovalEscalated, approvalEventData(escalated), s.now()))
	if s.delivery != nil {
		s.delivery.Broadcast(notificationFor(events.ApprovalEscalated, escalated, "Escalated: "+reason))
	}
	if s.reviewerEmail != "" && s.emailService != nil {
		notice := mailer.EscalationNotice{
			ApprovalId:   escalated.Id,
			SessionId:    escalated.SessionId,
			ResearcherId: escalated.ResearcherId,
			ContentType:  string(escalated.ContentType),
			Confidence:   escalated.Confidence,
			Reason:       reason,
			Preview:      gatekeeper.ReviewPrompt(escalated),
		}
		if err := s.emailService.SendEscalation(s.reviewerEmail, notice); err != nil {
			s.logger.Warn("REVIEW", "Failed to send escalation email", map[string]interface{}{
				"approval_id": escalated.Id,
				"error":       err.Error(),
			})
		}
	}
	return toApprovalResponse(escalated), nil
}

func (s *approvalService) Summary(ctx context.Context, sessionID string) (*gatekeeper.Summary, error) {
	var specs []specification.Specification
	if sessionID != "" {
		specs = append(specs, specification.BySession{SessionID: sessionID})
	}
	list, err := s.store.ListApprovals(ctx, specs...)
	if err != nil {
		return nil, err
	}
	sum := summarize(list)
	return &sum, nil
}

func (s *approvalService) SendPendingDigest(ctx context.Context) (int, error) {
	if s.reviewerEmail == "" || s.emailService == nil {
		return 0, apperr.Validation("SendPendingDigest", "no reviewer mailbox configured")
	}
	pending, err := s.store.ListApprovals(ctx, specification.ByStatus{Status: string(entity.ApprovalStatusPending)})
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	oldest := pending[0].CreatedAt
	for _, a := range pending[1:] {
		if a.CreatedAt.Before(oldest) {
			oldest = a.CreatedAt
		}
	}
	minutes := int(s.now().Sub(oldest).Minutes())
	if err := s.emailService.SendPendingDigest(s.reviewerEmail, len(pending), minutes); err != nil {
		return 0, err
	}
	return len(pending), nil
}

// mutateSession locates the request inside its session under the session's
// cycle slot, applies fn and saves the session. Findings returned by fn are
// approved in the same transaction as the session write.
func (s *approvalService) mutateSession(ctx context.Context, approvalID string, fn func(*entity.ResearchSession, *entity.ApprovalRequest) (*entity.ResponsePayload, error)) (*entity.ResearchSession, error) {
	row, err := s.store.FindApproval(ctx, approvalID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, sessionLockKey(row.SessionId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.store.LoadSessionForUpdate(ctx, row.SessionId)
	if err != nil {
		return nil, err
	}
	a := session.FindApproval(approvalID)
	if a == nil {
		return nil, apperr.NotFound("approval", "approval %s is not part of session %s", approvalID, session.Id)
	}
	approved, err := fn(session, a)
	if err != nil {
		return nil, err
	}
	session.LastUpdated = s.now().UTC()
	persistCtx := context.WithoutCancel(ctx)
	if approved != nil {
		err = s.store.SaveReviewedSession(persistCtx, session, approved.Summaries, approved.Comparisons)
	} else {
		err = s.store.SaveSession(persistCtx, session)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// moveDecided moves a decided request out of pending. Revision requests stay
// in the pending list so the content can be edited and resubmitted.
func moveDecided(session *entity.ResearchSession, a *entity.ApprovalRequest) {
	var target *[]*entity.ApprovalRequest
	switch a.Status {
	case entity.ApprovalStatusApproved:
		target = &session.ApprovedSummaries
	case entity.ApprovalStatusRejected:
		target = &session.FlaggedContent
	default:
		return
	}
	kept := session.PendingApprovals[:0]
	for _, p := range session.PendingApprovals {
		if p.Id != a.Id {
			kept = append(kept, p)
		}
	}
	session.PendingApprovals = kept
	*target = append(*target, a)
}

func markSessionFindingsApproved(session *entity.ResearchSession, a *entity.ApprovalRequest) {
	approved := map[string]bool{}
	for _, ls := range a.Content.Summaries {
		approved[ls.Id] = true
	}
	for _, tc := range a.Content.Comparisons {
		approved[tc.Id] = true
	}
	for _, ls := range session.LiteratureSummaries {
		if approved[ls.Id] {
			ls.Approved = true
		}
	}
	for _, tc := range session.ComparativeFindings {
		if approved[tc.Id] {
			tc.Approved = true
		}
	}
}

func summarize(list []*entity.ApprovalRequest) gatekeeper.Summary {
	return gatekeeper.Summarize(list)
}

func toApprovalResponse(a *entity.ApprovalRequest) *dto.ApprovalResponse {
	return &dto.ApprovalResponse{
		ApprovalRequest: a,
		ReviewPrompt:    gatekeeper.ReviewPrompt(a),
	}
}

func approvalEventData(a *entity.ApprovalRequest) map[string]interface{} {
	return map[string]interface{}{
		"approval_id":   a.Id,
		"session_id":    a.SessionId,
		"researcher_id": a.ResearcherId,
		"content_type":  string(a.ContentType),
		"priority":      string(a.Priority),
		"status":        string(a.Status),
		"confidence":    a.Confidence,
	}
}

func notificationFor(eventType string, a *entity.ApprovalRequest, message string) dto.ReviewNotification {
	return dto.ReviewNotification{
		Type:        eventType,
		ApprovalId:  a.Id,
		SessionId:   a.SessionId,
		Status:      a.Status,
		Priority:    a.Priority,
		ContentType: a.ContentType,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
}
