package model

import (
	"time"

	"gorm.io/datatypes"
)

// ResearchSession stores the whole session as a JSON blob next to the columns
// the store filters on.
type ResearchSession struct {
	Id            string         `gorm:"type:varchar(64);primaryKey"`
	ResearcherId  string         `gorm:"type:varchar(128);not null;index"`
	ProjectId     string         `gorm:"type:varchar(128);not null;index"`
	DiseaseFocus  string         `gorm:"type:varchar(255)"`
	Status        string         `gorm:"type:varchar(32)"`
	MessageCount  int            `gorm:"not null;default:0"`
	SchemaVersion int            `gorm:"not null;default:1"`
	SessionData   datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null"`
	LastUpdated   time.Time      `gorm:"not null;index"`
}

func (ResearchSession) TableName() string {
	return "research_sessions"
}

type ResearchProject struct {
	ProjectId    string    `gorm:"type:varchar(128);primaryKey"`
	ResearcherId string    `gorm:"type:varchar(128);not null;index"`
	DiseaseFocus string    `gorm:"type:varchar(255)"`
	SessionId    string    `gorm:"type:varchar(64);index"`
	Status       string    `gorm:"type:varchar(32)"`
	QueryCount   int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	LastUpdated  time.Time `gorm:"not null"`
}

func (ResearchProject) TableName() string {
	return "research_projects"
}

// All lists every table the research store owns, in migration order.
func All() []interface{} {
	return []interface{}{
		&ResearchSession{},
		&ResearchProject{},
		&LiteratureSummary{},
		&TreatmentComparison{},
		&ApprovalRequest{},
	}
}
