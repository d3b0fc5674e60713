package gatekeeper

import (
	"encoding/json"
	"strings"
	"time"

	"research-assistant-be/internal/constant"
	"research-assistant-be/internal/entity"
	"research-assistant-be/pkg/apperr"

	"github.com/google/uuid"
)

type Config struct {
	ConfidenceThreshold float64
	HighImpactJournals  []string
	SensitiveTerms      []string
	DisclaimerPhrases   []string
}

func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: constant.DefaultConfidenceThreshold,
		HighImpactJournals:  constant.DefaultHighImpactJournals,
		SensitiveTerms:      constant.DefaultSensitiveTerms,
		DisclaimerPhrases:   constant.DisclaimerPhrases,
	}
}

// Content is the view of a generated item the approval rules look at.
type Content struct {
	Priority   entity.Priority `json:"priority"`
	Confidence float64         `json:"confidence_score"`
	Journals   []string        `json:"journals,omitempty"`
	Text       string          `json:"text,omitempty"`
	Body       interface{}     `json:"body,omitempty"`
}

// ContentFromResponse builds the rule view of a response.
func ContentFromResponse(r *entity.Response) Content {
	c := Content{
		Priority:   r.Priority,
		Confidence: r.Confidence,
		Text:       r.Payload.Text,
		Body:       r.Payload,
	}
	for _, s := range r.Payload.Summaries {
		c.Journals = append(c.Journals, s.Journal)
	}
	return c
}

// ContentTypeFor maps a query type to the reviewed content type.
func ContentTypeFor(t entity.QueryType) entity.ContentType {
	switch t {
	case entity.QueryTypeLiteratureSearch:
		return entity.ContentTypeLiteratureSummary
	case entity.QueryTypeTreatmentComparison:
		return entity.ContentTypeTreatmentComparison
	case entity.QueryTypeClinicalQuestion:
		return entity.ContentTypeClinicalQuestion
	default:
		return entity.ContentTypeGeneralMedical
	}
}

type Gatekeeper struct {
	cfg         Config
	journals    []string
	sensitive   []string
	disclaimers []string
}

func New(cfg Config) *Gatekeeper {
	def := DefaultConfig()
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if len(cfg.HighImpactJournals) == 0 {
		cfg.HighImpactJournals = def.HighImpactJournals
	}
	if len(cfg.SensitiveTerms) == 0 {
		cfg.SensitiveTerms = def.SensitiveTerms
	}
	if len(cfg.DisclaimerPhrases) == 0 {
		cfg.DisclaimerPhrases = def.DisclaimerPhrases
	}
	return &Gatekeeper{
		cfg:         cfg,
		journals:    lowerAll(cfg.HighImpactJournals),
		sensitive:   lowerAll(cfg.SensitiveTerms),
		disclaimers: lowerAll(cfg.DisclaimerPhrases),
	}
}

// RequiresApproval is an OR of the gating rules, evaluated in priority order.
func (g *Gatekeeper) RequiresApproval(c Content, ct entity.ContentType) bool {
	switch {
	case c.Priority == entity.PriorityCritical:
		return true
	case c.Confidence < g.cfg.ConfidenceThreshold:
		return true
	case ct == entity.ContentTypeTreatmentComparison:
		return true
	case ct == entity.ContentTypeLiteratureSummary && g.isHighImpact(c):
		return true
	default:
		return g.HasSensitiveContent(c)
	}
}

func (g *Gatekeeper) DeterminePriority(c Content, ct entity.ContentType) entity.ApprovalPriority {
	switch {
	case c.Priority == entity.PriorityCritical:
		return entity.ApprovalPriorityUrgent
	case ct == entity.ContentTypeTreatmentComparison:
		return entity.ApprovalPriorityHigh
	case c.Confidence > 0.9:
		return entity.ApprovalPriorityLow
	case c.Confidence > 0.7:
		return entity.ApprovalPriorityMedium
	default:
		return entity.ApprovalPriorityHigh
	}
}

func (g *Gatekeeper) AutoApprovalEligible(c Content, ct entity.ContentType) bool {
	if c.Priority == entity.PriorityCritical {
		return false
	}
	if c.Confidence > 0.95 && !g.HasSensitiveContent(c) {
		return true
	}
	if ct == entity.ContentTypeClinicalQuestion && c.Confidence > 0.8 {
		return containsAny(strings.ToLower(c.Text), g.disclaimers)
	}
	return false
}

// HasSensitiveContent scans the serialized content for sensitive terms.
func (g *Gatekeeper) HasSensitiveContent(c Content) bool {
	data, err := json.Marshal(c)
	if err != nil {
		return containsAny(strings.ToLower(c.Text), g.sensitive)
	}
	return containsAny(strings.ToLower(string(data)), g.sensitive)
}

func (g *Gatekeeper) isHighImpact(c Content) bool {
	for _, j := range c.Journals {
		if containsAny(strings.ToLower(j), g.journals) {
			return true
		}
	}
	return false
}

// NewRequest builds a pending approval request for a gated response.
func (g *Gatekeeper) NewRequest(session *entity.ResearchSession, r *entity.Response, ct entity.ContentType, now time.Time) *entity.ApprovalRequest {
	c := ContentFromResponse(r)
	return &entity.ApprovalRequest{
		Id:                     uuid.NewString(),
		SessionId:              session.Id,
		ResearcherId:           session.ResearcherId,
		ResponseId:             r.Id,
		QueryId:                r.QueryId,
		ContentType:            ct,
		Content:                r.Payload,
		Confidence:             r.Confidence,
		Priority:               g.DeterminePriority(c, ct),
		Status:                 entity.ApprovalStatusPending,
		Criteria:               Criteria(ct),
		EstimatedReviewMinutes: EstimatedReviewMinutes(ct),
		CreatedAt:              now.UTC(),
	}
}

// Decision is a reviewer's verdict on an approval request.
type Decision string

const (
	DecisionApproved          Decision = Decision(entity.ApprovalStatusApproved)
	DecisionRejected          Decision = Decision(entity.ApprovalStatusRejected)
	DecisionRevisionRequested Decision = Decision(entity.ApprovalStatusRevisionRequested)
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case DecisionApproved, DecisionRejected, DecisionRevisionRequested:
		return d, nil
	default:
		return "", apperr.Validation("ParseDecision", "unknown review decision %q", s)
	}
}

// Decide records a terminal decision. Decisions are final.
func Decide(a *entity.ApprovalRequest, d Decision, feedback, reviewerId string, now time.Time) error {
	if a.Decided() {
		return apperr.Conflict("Decide", "approval %s already decided as %s", a.Id, a.Status)
	}
	if _, err := ParseDecision(string(d)); err != nil {
		return err
	}
	reviewed := now.UTC()
	a.Status = entity.ApprovalStatus(d)
	a.Feedback = feedback
	a.ReviewerId = reviewerId
	a.ReviewedAt = &reviewed
	return nil
}

// Escalate raises the request to urgent. Decided requests cannot be escalated.
func Escalate(a *entity.ApprovalRequest, reason string) error {
	if a.Decided() {
		return apperr.Conflict("Escalate", "approval %s already decided as %s", a.Id, a.Status)
	}
	a.Priority = entity.ApprovalPriorityUrgent
	a.Escalated = true
	a.EscalationReason = reason
	return nil
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
