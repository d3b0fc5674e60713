package contract

import (
	"context"
	"time"

	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/repository/specification"
)

type ResearchSessionRepository interface {
	// Upsert writes the whole session row. created_at is kept on update.
	Upsert(ctx context.Context, session *entity.ResearchSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ResearchSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ResearchSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// DeleteUpdatedBefore removes sessions idle since before cutoff and returns their ids.
	DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	LatestActivity(ctx context.Context, researcherID string) (*time.Time, error)
}

type ResearchProjectRepository interface {
	Upsert(ctx context.Context, project *entity.ProjectRecord) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProjectRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProjectRecord, error)
}
