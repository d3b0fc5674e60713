package contract

import (
	"context"
	"errors"
	"time"

	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/repository/specification"
)

// ErrApproved is returned by Upsert when the stored row is already approved.
var ErrApproved = errors.New("row is approved and can no longer change")

type LiteratureSummaryRepository interface {
	// Upsert inserts the row or rewrites it while it is still unapproved.
	Upsert(ctx context.Context, summary *entity.LiteratureSummary) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LiteratureSummary, error)
	// FindNewest returns at most limit rows, newest first.
	FindNewest(ctx context.Context, limit int, specs ...specification.Specification) ([]*entity.LiteratureSummary, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	MarkApproved(ctx context.Context, id string) error
	UpdateNotes(ctx context.Context, id, notes string) error
	LatestCreated(ctx context.Context, researcherID string) (*time.Time, error)
}

type TreatmentComparisonRepository interface {
	Upsert(ctx context.Context, comparison *entity.TreatmentComparison) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TreatmentComparison, error)
	FindNewest(ctx context.Context, limit int, specs ...specification.Specification) ([]*entity.TreatmentComparison, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	MarkApproved(ctx context.Context, id string) error
	UpdateNotes(ctx context.Context, id, notes string) error
	LatestCreated(ctx context.Context, researcherID string) (*time.Time, error)
}
