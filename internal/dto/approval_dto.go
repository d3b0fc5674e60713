package dto

import (
	"time"

	"research-assistant-be/internal/entity"
)

type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected revision_requested"`
	Feedback string `json:"feedback" validate:"max=4000"`
}

type EscalateRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type PendingApprovalsQuery struct {
	SessionId string `query:"session_id"`
	Priority  string `query:"priority" validate:"omitempty,oneof=urgent high medium low"`
	Limit     int    `query:"limit" validate:"omitempty,gte=1,lte=200"`
}

type ApprovalResponse struct {
	*entity.ApprovalRequest
	ReviewPrompt string `json:"review_prompt,omitempty"`
}

// ReviewNotification is pushed to connected reviewers and researchers.
type ReviewNotification struct {
	Type        string                  `json:"type"`
	ApprovalId  string                  `json:"approval_id"`
	SessionId   string                  `json:"session_id"`
	Status      entity.ApprovalStatus   `json:"status"`
	Priority    entity.ApprovalPriority `json:"priority"`
	ContentType entity.ContentType      `json:"content_type"`
	Message     string                  `json:"message"`
	CreatedAt   time.Time               `json:"created_at"`
}

type AuditLogQuery struct {
	Level  string `query:"level" validate:"omitempty,oneof=debug info warn error"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=500"`
	Offset int    `query:"offset" validate:"omitempty,gte=0"`
}
