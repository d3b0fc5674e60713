package entity

import "time"

const (
	ResponseTypeMemoryRetrieval = "memory_retrieval"
)

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// ResponsePayload is the opaque content of a response. Only one of the fields is
// normally populated, depending on the response type.
type ResponsePayload struct {
	Text        string                 `json:"text,omitempty"`
	SearchTerms []string               `json:"search_terms,omitempty"`
	Summaries   []*LiteratureSummary   `json:"summaries,omitempty"`
	Comparisons []*TreatmentComparison `json:"comparisons,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

type Response struct {
	Id               string          `json:"response_id"`
	QueryId          string          `json:"query_id"`
	ResponseType     string          `json:"response_type"`
	Payload          ResponsePayload `json:"payload"`
	Confidence       float64         `json:"confidence_score"`
	Priority         Priority        `json:"priority,omitempty"`
	RequiresApproval bool            `json:"requires_approval"`
	ApprovalId       string          `json:"approval_id,omitempty"`
	Degraded         bool            `json:"degraded,omitempty"`
	CreatedAt        time.Time       `json:"timestamp"`
}

type ConversationTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	QueryId   string    `json:"query_id,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}
