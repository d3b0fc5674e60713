package model

import (
	"time"

	"gorm.io/datatypes"
)

type LiteratureSummary struct {
	Id                string                      `gorm:"type:varchar(64);primaryKey"`
	ResearcherId      string                      `gorm:"type:varchar(128);not null;index"`
	ProjectId         string                      `gorm:"type:varchar(128);not null;index"`
	Title             string                      `gorm:"type:text;not null"`
	Authors           datatypes.JSONSlice[string] `gorm:"column:authors"`
	PublicationDate   string                      `gorm:"type:varchar(32)"`
	Journal           string                      `gorm:"type:varchar(255)"`
	Abstract          string                      `gorm:"type:text"`
	KeyFindings       datatypes.JSONSlice[string] `gorm:"column:key_findings"`
	TreatmentFocus    string                      `gorm:"type:varchar(255);index"`
	PopulationStudied string                      `gorm:"type:text"`
	Confidence        float64                     `gorm:"not null;default:0"`
	ResearcherNotes   string                      `gorm:"type:text"`
	Approved          bool                        `gorm:"not null;default:false"`
	CreatedAt         time.Time                   `gorm:"not null;index"`
	UpdatedAt         time.Time                   `gorm:"autoUpdateTime"`
}

func (LiteratureSummary) TableName() string {
	return "literature_summaries"
}

type TreatmentComparison struct {
	Id                    string                                  `gorm:"type:varchar(64);primaryKey"`
	ResearcherId          string                                  `gorm:"type:varchar(128);not null;index"`
	ProjectId             string                                  `gorm:"type:varchar(128);not null;index"`
	Treatments            datatypes.JSONSlice[string]             `gorm:"column:treatments"`
	DiseaseCondition      string                                  `gorm:"type:varchar(255);index"`
	EfficacyMetrics       datatypes.JSONType[map[string]string]   `gorm:"column:efficacy_metrics"`
	SideEffects           datatypes.JSONType[map[string][]string] `gorm:"column:side_effects"`
	PopulationDifferences datatypes.JSONType[map[string]string]   `gorm:"column:population_differences"`
	Recommendation        string                                  `gorm:"type:text"`
	ConfidenceLevel       string                                  `gorm:"type:varchar(32)"`
	Sources               datatypes.JSONSlice[string]             `gorm:"column:sources"`
	ResearcherNotes       string                                  `gorm:"type:text"`
	Approved              bool                                    `gorm:"not null;default:false"`
	CreatedAt             time.Time                               `gorm:"not null;index"`
	UpdatedAt             time.Time                               `gorm:"autoUpdateTime"`
}

func (TreatmentComparison) TableName() string {
	return "treatment_comparisons"
}
