package mapper

import (
	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type LiteratureMapper struct{}

func NewLiteratureMapper() *LiteratureMapper {
	return &LiteratureMapper{}
}

func (m *LiteratureMapper) SummaryToModel(s *entity.LiteratureSummary) *model.LiteratureSummary {
	if s == nil {
		return nil
	}
	return &model.LiteratureSummary{
		Id:                s.Id,
		ResearcherId:      s.ResearcherId,
		ProjectId:         s.ProjectId,
		Title:             s.Title,
		Authors:           datatypes.JSONSlice[string](s.Authors),
		PublicationDate:   s.PublicationDate,
		Journal:           s.Journal,
		Abstract:          s.Abstract,
		KeyFindings:       datatypes.JSONSlice[string](s.KeyFindings),
		TreatmentFocus:    s.TreatmentFocus,
		PopulationStudied: s.PopulationStudied,
		Confidence:        s.Confidence,
		ResearcherNotes:   s.ResearcherNotes,
		Approved:          s.Approved,
		CreatedAt:         s.CreatedAt,
	}
}

func (m *LiteratureMapper) SummaryToEntity(s *model.LiteratureSummary) *entity.LiteratureSummary {
	if s == nil {
		return nil
	}
	return &entity.LiteratureSummary{
		Id:                s.Id,
		ResearcherId:      s.ResearcherId,
		ProjectId:         s.ProjectId,
		Title:             s.Title,
		Authors:           []string(s.Authors),
		PublicationDate:   s.PublicationDate,
		Journal:           s.Journal,
		Abstract:          s.Abstract,
		KeyFindings:       []string(s.KeyFindings),
		TreatmentFocus:    s.TreatmentFocus,
		PopulationStudied: s.PopulationStudied,
		Confidence:        s.Confidence,
		ResearcherNotes:   s.ResearcherNotes,
		Approved:          s.Approved,
		CreatedAt:         s.CreatedAt.UTC(),
	}
}

func (m *LiteratureMapper) SummariesToEntities(models []*model.LiteratureSummary) []*entity.LiteratureSummary {
	out := make([]*entity.LiteratureSummary, 0, len(models))
	for _, s := range models {
		out = append(out, m.SummaryToEntity(s))
	}
	return out
}

func (m *LiteratureMapper) ComparisonToModel(c *entity.TreatmentComparison) *model.TreatmentComparison {
	if c == nil {
		return nil
	}
	return &model.TreatmentComparison{
		Id:                    c.Id,
		ResearcherId:          c.ResearcherId,
		ProjectId:             c.ProjectId,
		Treatments:            datatypes.JSONSlice[string](c.Treatments),
		DiseaseCondition:      c.DiseaseCondition,
		EfficacyMetrics:       datatypes.NewJSONType(c.EfficacyMetrics),
		SideEffects:           datatypes.NewJSONType(c.SideEffects),
		PopulationDifferences: datatypes.NewJSONType(c.PopulationDifferences),
		Recommendation:        c.Recommendation,
		ConfidenceLevel:       c.ConfidenceLevel,
		Sources:               datatypes.JSONSlice[string](c.Sources),
		ResearcherNotes:       c.ResearcherNotes,
		Approved:              c.Approved,
		CreatedAt:             c.CreatedAt,
	}
}

func (m *LiteratureMapper) ComparisonToEntity(c *model.TreatmentComparison) *entity.TreatmentComparison {
	if c == nil {
		return nil
	}
	return &entity.TreatmentComparison{
		Id:                    c.Id,
		ResearcherId:          c.ResearcherId,
		ProjectId:             c.ProjectId,
		Treatments:            []string(c.Treatments),
		DiseaseCondition:      c.DiseaseCondition,
		EfficacyMetrics:       c.EfficacyMetrics.Data(),
		SideEffects:           c.SideEffects.Data(),
		PopulationDifferences: c.PopulationDifferences.Data(),
		Recommendation:        c.Recommendation,
		ConfidenceLevel:       c.ConfidenceLevel,
		Sources:               []string(c.Sources),
		ResearcherNotes:       c.ResearcherNotes,
		Approved:              c.Approved,
		CreatedAt:             c.CreatedAt.UTC(),
	}
}

func (m *LiteratureMapper) ComparisonsToEntities(models []*model.TreatmentComparison) []*entity.TreatmentComparison {
	out := make([]*entity.TreatmentComparison, 0, len(models))
	for _, c := range models {
		out = append(out, m.ComparisonToEntity(c))
	}
	return out
}
