package entity

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusActive     = "active"
	SessionStatusProcessing = "processing"
)

// ResearchSession is one researcher's bounded unit of query and response history.
// The whole struct is persisted as the session blob.
type ResearchSession struct {
	SchemaVersion int       `json:"schema_version"`
	Id            string    `json:"session_id" validate:"required"`
	ResearcherId  string    `json:"researcher_id" validate:"required"`
	ProjectId     string    `json:"project_id" validate:"required"`
	DiseaseFocus  string    `json:"disease_focus" validate:"required"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"timestamp" validate:"required"`
	LastUpdated   time.Time `json:"last_updated"`
	MessageCount  int       `json:"message_count" validate:"gte=0"`
	MemoryTrimmed bool      `json:"memory_trimmed"`

	// Running tally of submitted text rejected before entering a cycle
	FilterStats FilterTally `json:"filter_stats"`

	// Short-term memory
	CurrentQueries     []*Query            `json:"current_queries"`
	SessionResponses   []*Response         `json:"session_responses"`
	ActiveConversation []*ConversationTurn `json:"active_conversation"`
	PendingApprovals   []*ApprovalRequest  `json:"pending_approvals"`

	// Long-term memory
	LiteratureSummaries []*LiteratureSummary   `json:"literature_summaries"`
	ComparativeFindings []*TreatmentComparison `json:"comparative_findings"`
	CaseHistory         []*CaseRecord          `json:"case_history"`
	ResearchProjects    []*ProjectRecord       `json:"research_projects"`

	// Review outcomes
	ApprovedSummaries []*ApprovalRequest `json:"approved_summaries"`
	FlaggedContent    []*ApprovalRequest `json:"flagged_content"`
}

type FilterTally struct {
	Total    int            `json:"total_queries"`
	Valid    int            `json:"valid_queries"`
	Filtered int            `json:"filtered_queries"`
	Reasons  map[string]int `json:"filter_reasons,omitempty"`
}

// Record counts one filter outcome.
func (t *FilterTally) Record(accepted bool, reason string) {
	t.Total++
	if accepted {
		t.Valid++
		return
	}
	t.Filtered++
	if t.Reasons == nil {
		t.Reasons = map[string]int{}
	}
	t.Reasons[reason]++
}

var ErrCurrentQueriesNil = errors.New("current_queries must be a list")

func NewResearchSession(researcherId, projectId, diseaseFocus string, now time.Time) (*ResearchSession, error) {
	s := &ResearchSession{
		SchemaVersion: SchemaVersion,
		Id:            uuid.NewString(),
		ResearcherId:  strings.TrimSpace(researcherId),
		ProjectId:     strings.TrimSpace(projectId),
		DiseaseFocus:  strings.TrimSpace(diseaseFocus),
		Status:        SessionStatusActive,
		CreatedAt:     now.UTC(),
		LastUpdated:   now.UTC(),
	}
	s.EnsureLists()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate enforces the required identity fields and list presence.
func (s *ResearchSession) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if s.CurrentQueries == nil {
		return ErrCurrentQueriesNil
	}
	return nil
}

// EnsureLists replaces nil lists with empty ones, e.g. after decoding an older blob.
func (s *ResearchSession) EnsureLists() {
	if s.CurrentQueries == nil {
		s.CurrentQueries = []*Query{}
	}
	if s.SessionResponses == nil {
		s.SessionResponses = []*Response{}
	}
	if s.ActiveConversation == nil {
		s.ActiveConversation = []*ConversationTurn{}
	}
	if s.PendingApprovals == nil {
		s.PendingApprovals = []*ApprovalRequest{}
	}
	if s.LiteratureSummaries == nil {
		s.LiteratureSummaries = []*LiteratureSummary{}
	}
	if s.ComparativeFindings == nil {
		s.ComparativeFindings = []*TreatmentComparison{}
	}
	if s.CaseHistory == nil {
		s.CaseHistory = []*CaseRecord{}
	}
	if s.ResearchProjects == nil {
		s.ResearchProjects = []*ProjectRecord{}
	}
	if s.ApprovedSummaries == nil {
		s.ApprovedSummaries = []*ApprovalRequest{}
	}
	if s.FlaggedContent == nil {
		s.FlaggedContent = []*ApprovalRequest{}
	}
}

// Clone returns a deep copy through the persisted representation.
func (s *ResearchSession) Clone() (*ResearchSession, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out ResearchSession
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	out.EnsureLists()
	return &out, nil
}

// FindApproval locates an approval in any of the review lists.
func (s *ResearchSession) FindApproval(id string) *ApprovalRequest {
	for _, list := range [][]*ApprovalRequest{s.PendingApprovals, s.ApprovedSummaries, s.FlaggedContent} {
		for _, a := range list {
			if a.Id == id {
				return a
			}
		}
	}
	return nil
}

// MergeLiterature adds summaries not already present, keyed by id.
func (s *ResearchSession) MergeLiterature(summaries []*LiteratureSummary) {
	seen := make(map[string]int, len(s.LiteratureSummaries))
	for i, ls := range s.LiteratureSummaries {
		seen[ls.Id] = i
	}
	for _, ls := range summaries {
		if i, ok := seen[ls.Id]; ok {
			s.LiteratureSummaries[i] = ls
			continue
		}
		seen[ls.Id] = len(s.LiteratureSummaries)
		s.LiteratureSummaries = append(s.LiteratureSummaries, ls)
	}
}

// MergeComparisons adds comparisons not already present, keyed by id.
func (s *ResearchSession) MergeComparisons(comparisons []*TreatmentComparison) {
	seen := make(map[string]int, len(s.ComparativeFindings))
	for i, c := range s.ComparativeFindings {
		seen[c.Id] = i
	}
	for _, c := range comparisons {
		if i, ok := seen[c.Id]; ok {
			s.ComparativeFindings[i] = c
			continue
		}
		seen[c.Id] = len(s.ComparativeFindings)
		s.ComparativeFindings = append(s.ComparativeFindings, c)
	}
}
