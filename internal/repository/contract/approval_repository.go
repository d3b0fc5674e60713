package contract

import (
	"context"

	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/repository/specification"
)

type ApprovalRequestRepository interface {
	Upsert(ctx context.Context, approval *entity.ApprovalRequest) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ApprovalRequest, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ApprovalRequest, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteBySessionIDs(ctx context.Context, sessionIDs []string) (int64, error)
}
