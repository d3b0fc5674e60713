package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type QueryType string

const (
	QueryTypeLiteratureSearch    QueryType = "literature_search"
	QueryTypeTreatmentComparison QueryType = "treatment_comparison"
	QueryTypeClinicalQuestion    QueryType = "clinical_question"
	QueryTypeGeneral             QueryType = "general"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type QueryStatus string

const (
	QueryStatusPending          QueryStatus = "pending"
	QueryStatusProcessing       QueryStatus = "processing"
	QueryStatusCompleted        QueryStatus = "completed"
	QueryStatusRequiresApproval QueryStatus = "requires_approval"
)

type Query struct {
	Id           string      `json:"query_id" validate:"required"`
	Text         string      `json:"query_text" validate:"required"`
	Type         QueryType   `json:"query_type" validate:"required,oneof=literature_search treatment_comparison clinical_question general"`
	Priority     Priority    `json:"priority" validate:"required,oneof=low medium high critical"`
	Status       QueryStatus `json:"status" validate:"required,oneof=pending processing completed requires_approval"`
	MedicalScore float64     `json:"medical_score"`
	CreatedAt    time.Time   `json:"timestamp" validate:"required"`
}

// NewQuery builds a pending query in the general bucket. Classification happens later.
func NewQuery(text string, now time.Time) (*Query, error) {
	q := &Query{
		Id:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		Type:      QueryTypeGeneral,
		Priority:  PriorityMedium,
		Status:    QueryStatusPending,
		CreatedAt: now.UTC(),
	}
	if err := validate.Struct(q); err != nil {
		return nil, err
	}
	return q, nil
}
