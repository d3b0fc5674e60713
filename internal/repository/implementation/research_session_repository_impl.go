package implementation

import (
	"context"
	"errors"
	"time"

	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/mapper"
	"research-assistant-be/internal/model"
	"research-assistant-be/internal/repository/contract"
	"research-assistant-be/internal/repository/scope"
	"research-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResearchSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResearchSessionMapper
}

func NewResearchSessionRepository(db *gorm.DB) contract.ResearchSessionRepository {
	return &ResearchSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewResearchSessionMapper(),
	}
}

func (r *ResearchSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ResearchSessionRepositoryImpl) Upsert(ctx context.Context, session *entity.ResearchSession) error {
	m, err := r.mapper.ToModel(session)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"researcher_id", "project_id", "disease_focus", "status",
			"message_count", "schema_version", "session_data", "last_updated",
		}),
	}).Create(m).Error
}

func (r *ResearchSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ResearchSession, error) {
	var m model.ResearchSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ResearchSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ResearchSession, error) {
	var models []*model.ResearchSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.ResearchSession, 0, len(models))
	for _, m := range models {
		s, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *ResearchSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ResearchSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ResearchSessionRepositoryImpl) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	db := r.db.WithContext(ctx)
	before := specification.UpdatedBefore{Cutoff: cutoff.UTC()}
	if err := before.Apply(db.Model(&model.ResearchSession{})).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := (specification.ByIDs{IDs: ids}).Apply(db).Delete(&model.ResearchSession{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ResearchSessionRepositoryImpl) LatestActivity(ctx context.Context, researcherID string) (*time.Time, error) {
	var m model.ResearchSession
	err := r.db.WithContext(ctx).
		Select("id", "last_updated").
		Scopes(scope.OrderByLastUpdatedDesc).
		Where("researcher_id = ?", researcherID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := m.LastUpdated.UTC()
	return &t, nil
}

type ResearchProjectRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResearchSessionMapper
}

func NewResearchProjectRepository(db *gorm.DB) contract.ResearchProjectRepository {
	return &ResearchProjectRepositoryImpl{
		db:     db,
		mapper: mapper.NewResearchSessionMapper(),
	}
}

func (r *ResearchProjectRepositoryImpl) Upsert(ctx context.Context, project *entity.ProjectRecord) error {
	m := r.mapper.ToProjectModel(project)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"researcher_id", "disease_focus", "session_id", "status", "query_count", "last_updated",
		}),
	}).Create(m).Error
}

func (r *ResearchProjectRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProjectRecord, error) {
	var m model.ResearchProject
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToProjectEntity(&m), nil
}

func (r *ResearchProjectRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProjectRecord, error) {
	var models []*model.ResearchProject
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToProjectEntities(models), nil
}
