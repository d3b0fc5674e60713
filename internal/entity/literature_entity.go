package entity

import "time"

type LiteratureSummary struct {
	Id                string    `json:"summary_id" validate:"required"`
	ResearcherId      string    `json:"researcher_id" validate:"required"`
	ProjectId         string    `json:"project_id" validate:"required"`
	Title             string    `json:"title" validate:"required"`
	Authors           []string  `json:"authors"`
	PublicationDate   string    `json:"publication_date"`
	Journal           string    `json:"journal"`
	Abstract          string    `json:"abstract"`
	KeyFindings       []string  `json:"key_findings"`
	TreatmentFocus    string    `json:"treatment_focus"`
	PopulationStudied string    `json:"population_studied"`
	Confidence        float64   `json:"confidence_score" validate:"gte=0,lte=1"`
	ResearcherNotes   string    `json:"researcher_notes"`
	Approved          bool      `json:"approved"`
	CreatedAt         time.Time `json:"created_at"`
}

func (s *LiteratureSummary) Validate() error {
	return validate.Struct(s)
}

// FirstFinding returns the leading key finding or an empty string.
func (s *LiteratureSummary) FirstFinding() string {
	if len(s.KeyFindings) == 0 {
		return ""
	}
	return s.KeyFindings[0]
}

type TreatmentComparison struct {
	Id                    string              `json:"comparison_id" validate:"required"`
	ResearcherId          string              `json:"researcher_id" validate:"required"`
	ProjectId             string              `json:"project_id" validate:"required"`
	Treatments            []string            `json:"treatments" validate:"min=1"`
	DiseaseCondition      string              `json:"disease_condition"`
	EfficacyMetrics       map[string]string   `json:"efficacy_metrics"`
	SideEffects           map[string][]string `json:"side_effects"`
	PopulationDifferences map[string]string   `json:"population_differences"`
	Recommendation        string              `json:"recommendation"`
	ConfidenceLevel       string              `json:"confidence_level"`
	Sources               []string            `json:"sources"`
	ResearcherNotes       string              `json:"researcher_notes"`
	Approved              bool                `json:"approved"`
	CreatedAt             time.Time           `json:"created_at"`
}

func (c *TreatmentComparison) Validate() error {
	return validate.Struct(c)
}

type CaseRecord struct {
	Id        string    `json:"case_id"`
	Summary   string    `json:"summary"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

type ProjectRecord struct {
	ProjectId    string    `json:"project_id" validate:"required"`
	ResearcherId string    `json:"researcher_id" validate:"required"`
	DiseaseFocus string    `json:"disease_focus"`
	SessionId    string    `json:"session_id"`
	Status       string    `json:"status"`
	QueryCount   int       `json:"query_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
}

type ResearcherStats struct {
	ResearcherId    string     `json:"researcher_id"`
	LiteratureCount int64      `json:"literature_count"`
	ComparisonCount int64      `json:"comparison_count"`
	SessionCount    int64      `json:"session_count"`
	LastActivity    *time.Time `json:"last_activity"`
}
