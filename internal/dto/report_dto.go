package dto

import (
	"time"

	"research-assistant-be/internal/entity"
	"research-assistant-be/pkg/gatekeeper"
)

// SessionReport is the structured export of one session.
type SessionReport struct {
	GeneratedAt         time.Time                     `json:"generated_at"`
	Session             *SessionStatusResponse        `json:"session"`
	Projects            []*entity.ProjectRecord       `json:"projects"`
	Responses           []*entity.Response            `json:"responses"`
	Conversation        []*entity.ConversationTurn    `json:"conversation"`
	LiteratureSummaries []*entity.LiteratureSummary   `json:"literature_summaries"`
	Comparisons         []*entity.TreatmentComparison `json:"comparisons"`
	Approvals           gatekeeper.Summary            `json:"approvals"`
	FilterStats         entity.FilterTally            `json:"filter_stats"`
}
