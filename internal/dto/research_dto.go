package dto

import (
	"time"

	"research-assistant-be/internal/entity"
)

type StartSessionRequest struct {
	ProjectId    string `json:"project_id" validate:"required,max=64"`
	DiseaseFocus string `json:"disease_focus" validate:"required,max=255"`
}

type ProcessQueriesRequest struct {
	Queries []string `json:"queries" validate:"omitempty,max=50,dive,max=4000"`
}

type AddQueryRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
}

type SessionStatusResponse struct {
	SessionId         string    `json:"session_id"`
	ResearcherId      string    `json:"researcher_id"`
	ProjectId         string    `json:"project_id"`
	DiseaseFocus      string    `json:"disease_focus"`
	Status            string    `json:"status"`
	MessageCount      int       `json:"message_count"`
	QueuedQueries     int       `json:"queued_queries"`
	ResponseCount     int       `json:"response_count"`
	ConversationTurns int       `json:"conversation_turns"`
	PendingApprovals  int       `json:"pending_approvals"`
	ApprovedCount     int       `json:"approved_count"`
	FlaggedCount      int       `json:"flagged_count"`
	MemoryTrimmed     bool      `json:"memory_trimmed"`
	CreatedAt         time.Time `json:"created_at"`
	LastUpdated       time.Time `json:"last_updated"`
}

// FilteredQuery is a submitted text that never entered the cycle.
type FilteredQuery struct {
	Query        string  `json:"query"`
	Reason       string  `json:"reason"`
	MedicalScore float64 `json:"medical_score"`
}

type ProcessQueriesResponse struct {
	SessionId     string                 `json:"session_id"`
	Accepted      int                    `json:"accepted"`
	Filtered      []FilteredQuery        `json:"filtered"`
	Responses     []*entity.Response     `json:"responses"`
	Approvals     []*ApprovalResponse    `json:"approvals"`
	Degraded      int                    `json:"degraded"`
	MemoryTrimmed bool                   `json:"memory_trimmed"`
	Status        *SessionStatusResponse `json:"status"`
}

type LiteratureQuery struct {
	ProjectId string `query:"project_id"`
	Focus     string `query:"focus"`
}

type LiteratureQueryResponse struct {
	Summaries   []*entity.LiteratureSummary   `json:"summaries"`
	Comparisons []*entity.TreatmentComparison `json:"comparisons"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes" validate:"max=4000"`
}

type CleanupRequest struct {
	Days *int `json:"days" validate:"omitempty,gte=0"`
}

type CleanupResponse struct {
	Deleted int `json:"deleted"`
	Days    int `json:"days"`
}

// FindingsMessage carries generated findings to the long-term store consumer.
type FindingsMessage struct {
	SessionId    string                        `json:"session_id"`
	ResearcherId string                        `json:"researcher_id"`
	ProjectId    string                        `json:"project_id"`
	Summaries    []*entity.LiteratureSummary   `json:"summaries"`
	Comparisons  []*entity.TreatmentComparison `json:"comparisons"`
}
