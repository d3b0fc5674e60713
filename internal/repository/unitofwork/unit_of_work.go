package unitofwork

import (
	"context"

	"research-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ResearchSessionRepository() contract.ResearchSessionRepository
	ResearchProjectRepository() contract.ResearchProjectRepository
	LiteratureSummaryRepository() contract.LiteratureSummaryRepository
	TreatmentComparisonRepository() contract.TreatmentComparisonRepository
	ApprovalRequestRepository() contract.ApprovalRequestRepository
}
