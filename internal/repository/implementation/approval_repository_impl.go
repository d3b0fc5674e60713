package implementation

import (
	"context"
	"errors"

	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/mapper"
	"research-assistant-be/internal/model"
	"research-assistant-be/internal/repository/contract"
	"research-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApprovalRequestRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ApprovalMapper
}

func NewApprovalRequestRepository(db *gorm.DB) contract.ApprovalRequestRepository {
	return &ApprovalRequestRepositoryImpl{
		db:     db,
		mapper: mapper.NewApprovalMapper(),
	}
}

func (r *ApprovalRequestRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ApprovalRequestRepositoryImpl) Upsert(ctx context.Context, approval *entity.ApprovalRequest) error {
	m, err := r.mapper.ToModel(approval)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "confidence", "priority", "status", "criteria", "estimated_review_minutes",
			"auto_approved", "escalated", "escalation_reason", "reviewer_id", "feedback", "reviewed_at",
		}),
	}).Create(m).Error
}

func (r *ApprovalRequestRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ApprovalRequest, error) {
	var m model.ApprovalRequest
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ApprovalRequestRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ApprovalRequest, error) {
	var models []*model.ApprovalRequest
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *ApprovalRequestRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ApprovalRequest{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ApprovalRequestRepositoryImpl) DeleteBySessionIDs(ctx context.Context, sessionIDs []string) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	res := (specification.BySessionIDs{SessionIDs: sessionIDs}).Apply(r.db.WithContext(ctx)).Delete(&model.ApprovalRequest{})
	return res.RowsAffected, res.Error
}
