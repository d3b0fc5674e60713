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

// approved only moves through MarkApproved, so a re-save cannot revoke it.
// Rows already approved are left untouched by the conflict update.
var literatureUpdateColumns = []string{
	"researcher_id", "project_id", "title", "authors", "publication_date", "journal",
	"abstract", "key_findings", "treatment_focus", "population_studied", "confidence",
	"researcher_notes", "updated_at",
}

var comparisonUpdateColumns = []string{
	"researcher_id", "project_id", "treatments", "disease_condition", "efficacy_metrics",
	"side_effects", "population_differences", "recommendation", "confidence_level",
	"sources", "researcher_notes", "updated_at",
}

func unapprovedOnly() clause.Where {
	return clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "approved"}, Value: false},
	}}
}

func upsertUnapproved(db *gorm.DB, row interface{}, columns []string) error {
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
		Where:     unapprovedOnly(),
	}).Create(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrApproved
	}
	return nil
}

type LiteratureSummaryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LiteratureMapper
}

func NewLiteratureSummaryRepository(db *gorm.DB) contract.LiteratureSummaryRepository {
	return &LiteratureSummaryRepositoryImpl{
		db:     db,
		mapper: mapper.NewLiteratureMapper(),
	}
}

func (r *LiteratureSummaryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LiteratureSummaryRepositoryImpl) Upsert(ctx context.Context, summary *entity.LiteratureSummary) error {
	return upsertUnapproved(r.db.WithContext(ctx), r.mapper.SummaryToModel(summary), literatureUpdateColumns)
}

func (r *LiteratureSummaryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LiteratureSummary, error) {
	var m model.LiteratureSummary
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SummaryToEntity(&m), nil
}

func (r *LiteratureSummaryRepositoryImpl) FindNewest(ctx context.Context, limit int, specs ...specification.Specification) ([]*entity.LiteratureSummary, error) {
	var models []*model.LiteratureSummary
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Scopes(scope.Newest(limit)).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.SummariesToEntities(models), nil
}

func (r *LiteratureSummaryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.LiteratureSummary{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LiteratureSummaryRepositoryImpl) MarkApproved(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.LiteratureSummary{}).
		Where("id = ?", id).
		Update("approved", true).Error
}

func (r *LiteratureSummaryRepositoryImpl) UpdateNotes(ctx context.Context, id, notes string) error {
	return r.db.WithContext(ctx).Model(&model.LiteratureSummary{}).
		Where("id = ?", id).
		Update("researcher_notes", notes).Error
}

func (r *LiteratureSummaryRepositoryImpl) LatestCreated(ctx context.Context, researcherID string) (*time.Time, error) {
	var m model.LiteratureSummary
	err := r.db.WithContext(ctx).Select("id", "created_at").
		Scopes(scope.OrderByCreatedDesc).
		Where("researcher_id = ?", researcherID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := m.CreatedAt.UTC()
	return &t, nil
}

type TreatmentComparisonRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LiteratureMapper
}

func NewTreatmentComparisonRepository(db *gorm.DB) contract.TreatmentComparisonRepository {
	return &TreatmentComparisonRepositoryImpl{
		db:     db,
		mapper: mapper.NewLiteratureMapper(),
	}
}

func (r *TreatmentComparisonRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TreatmentComparisonRepositoryImpl) Upsert(ctx context.Context, comparison *entity.TreatmentComparison) error {
	return upsertUnapproved(r.db.WithContext(ctx), r.mapper.ComparisonToModel(comparison), comparisonUpdateColumns)
}

func (r *TreatmentComparisonRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TreatmentComparison, error) {
	var m model.TreatmentComparison
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ComparisonToEntity(&m), nil
}

func (r *TreatmentComparisonRepositoryImpl) FindNewest(ctx context.Context, limit int, specs ...specification.Specification) ([]*entity.TreatmentComparison, error) {
	var models []*model.TreatmentComparison
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Scopes(scope.Newest(limit)).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ComparisonsToEntities(models), nil
}

func (r *TreatmentComparisonRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TreatmentComparison{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TreatmentComparisonRepositoryImpl) MarkApproved(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.TreatmentComparison{}).
		Where("id = ?", id).
		Update("approved", true).Error
}

func (r *TreatmentComparisonRepositoryImpl) UpdateNotes(ctx context.Context, id, notes string) error {
	return r.db.WithContext(ctx).Model(&model.TreatmentComparison{}).
		Where("id = ?", id).
		Update("researcher_notes", notes).Error
}

func (r *TreatmentComparisonRepositoryImpl) LatestCreated(ctx context.Context, researcherID string) (*time.Time, error) {
	var m model.TreatmentComparison
	err := r.db.WithContext(ctx).Select("id", "created_at").
		Scopes(scope.OrderByCreatedDesc).
		Where("researcher_id = ?", researcherID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := m.CreatedAt.UTC()
	return &t, nil
}
