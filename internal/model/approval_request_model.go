package model

import (
	"time"

	"gorm.io/datatypes"
)

type ApprovalRequest struct {
	Id                     string                      `gorm:"type:varchar(64);primaryKey"`
	SessionId              string                      `gorm:"type:varchar(64);not null;index"`
	ResearcherId           string                      `gorm:"type:varchar(128);not null;index"`
	ResponseId             string                      `gorm:"type:varchar(64);not null"`
	QueryId                string                      `gorm:"type:varchar(64)"`
	ContentType            string                      `gorm:"type:varchar(32);not null"`
	Content                datatypes.JSON              `gorm:"column:content"`
	Confidence             float64                     `gorm:"not null;default:0"`
	Priority               string                      `gorm:"type:varchar(16);not null;index"`
	Status                 string                      `gorm:"type:varchar(32);not null;index"`
	Criteria               datatypes.JSONSlice[string] `gorm:"column:criteria"`
	EstimatedReviewMinutes int                         `gorm:"not null;default:0"`
	AutoApproved           bool                        `gorm:"not null;default:false"`
	Escalated              bool                        `gorm:"not null;default:false"`
	EscalationReason       string                      `gorm:"type:text"`
	ReviewerId             string                      `gorm:"type:varchar(128)"`
	Feedback               string                      `gorm:"type:text"`
	CreatedAt              time.Time                   `gorm:"not null;index"`
	ReviewedAt             *time.Time                  `gorm:"column:reviewed_at"`
}

func (ApprovalRequest) TableName() string {
	return "approval_requests"
}
