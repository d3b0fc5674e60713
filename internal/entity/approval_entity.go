package entity

import "time"

type ApprovalStatus string

const (
	ApprovalStatusPending           ApprovalStatus = "pending"
	ApprovalStatusApproved          ApprovalStatus = "approved"
	ApprovalStatusRejected          ApprovalStatus = "rejected"
	ApprovalStatusRevisionRequested ApprovalStatus = "revision_requested"
)

type ApprovalPriority string

const (
	ApprovalPriorityUrgent ApprovalPriority = "urgent"
	ApprovalPriorityHigh   ApprovalPriority = "high"
	ApprovalPriorityMedium ApprovalPriority = "medium"
	ApprovalPriorityLow    ApprovalPriority = "low"
)

type ContentType string

const (
	ContentTypeLiteratureSummary   ContentType = "literature_summary"
	ContentTypeTreatmentComparison ContentType = "treatment_comparison"
	ContentTypeClinicalQuestion    ContentType = "clinical_question"
	ContentTypeGeneralMedical      ContentType = "general_medical"
)

type ApprovalRequest struct {
	Id                     string           `json:"approval_id" validate:"required"`
	SessionId              string           `json:"session_id" validate:"required"`
	ResearcherId           string           `json:"researcher_id" validate:"required"`
	ResponseId             string           `json:"content_ref" validate:"required"`
	QueryId                string           `json:"query_id"`
	ContentType            ContentType      `json:"content_type" validate:"required"`
	Content                ResponsePayload  `json:"content"`
	Confidence             float64          `json:"confidence_score"`
	Priority               ApprovalPriority `json:"priority" validate:"required,oneof=urgent high medium low"`
	Status                 ApprovalStatus   `json:"status" validate:"required,oneof=pending approved rejected revision_requested"`
	Criteria               []string         `json:"approval_criteria"`
	EstimatedReviewMinutes int              `json:"estimated_review_time"`
	AutoApproved           bool             `json:"auto_approved,omitempty"`
	Escalated              bool             `json:"escalated,omitempty"`
	EscalationReason       string           `json:"escalation_reason,omitempty"`
	ReviewerId             string           `json:"reviewer_id,omitempty"`
	Feedback               string           `json:"feedback,omitempty"`
	CreatedAt              time.Time        `json:"created_at" validate:"required"`
	ReviewedAt             *time.Time       `json:"reviewed_at,omitempty"`
}

func (a *ApprovalRequest) Validate() error {
	return validate.Struct(a)
}

// Decided reports whether a terminal review decision has been recorded.
func (a *ApprovalRequest) Decided() bool {
	return a.Status != ApprovalStatusPending
}
