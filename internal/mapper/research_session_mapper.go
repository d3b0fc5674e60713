package mapper

import (
	"encoding/json"
	"fmt"

	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type ResearchSessionMapper struct{}

func NewResearchSessionMapper() *ResearchSessionMapper {
	return &ResearchSessionMapper{}
}

func (m *ResearchSessionMapper) ToModel(s *entity.ResearchSession) (*model.ResearchSession, error) {
	if s == nil {
		return nil, nil
	}
	blob, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.Id, err)
	}
	return &model.ResearchSession{
		Id:            s.Id,
		ResearcherId:  s.ResearcherId,
		ProjectId:     s.ProjectId,
		DiseaseFocus:  s.DiseaseFocus,
		Status:        s.Status,
		MessageCount:  s.MessageCount,
		SchemaVersion: entity.SchemaVersion,
		SessionData:   datatypes.JSON(blob),
		CreatedAt:     s.CreatedAt,
		LastUpdated:   s.LastUpdated,
	}, nil
}

// ToEntity decodes the blob. Blobs written before a list existed come back
// with that list empty rather than nil.
func (m *ResearchSessionMapper) ToEntity(r *model.ResearchSession) (*entity.ResearchSession, error) {
	if r == nil {
		return nil, nil
	}
	var s entity.ResearchSession
	if err := json.Unmarshal(r.SessionData, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", r.Id, err)
	}
	if r.SchemaVersion > entity.SchemaVersion {
		return nil, fmt.Errorf("session %s has schema version %d, newer than %d", r.Id, r.SchemaVersion, entity.SchemaVersion)
	}
	s.SchemaVersion = entity.SchemaVersion
	s.EnsureLists()
	if s.Id == "" {
		s.Id = r.Id
	}
	s.LastUpdated = r.LastUpdated.UTC()
	return &s, nil
}

func (m *ResearchSessionMapper) ToProjectModel(p *entity.ProjectRecord) *model.ResearchProject {
	if p == nil {
		return nil
	}
	return &model.ResearchProject{
		ProjectId:    p.ProjectId,
		ResearcherId: p.ResearcherId,
		DiseaseFocus: p.DiseaseFocus,
		SessionId:    p.SessionId,
		Status:       p.Status,
		QueryCount:   p.QueryCount,
		CreatedAt:    p.CreatedAt,
		LastUpdated:  p.LastUpdated,
	}
}

func (m *ResearchSessionMapper) ToProjectEntity(p *model.ResearchProject) *entity.ProjectRecord {
	if p == nil {
		return nil
	}
	return &entity.ProjectRecord{
		ProjectId:    p.ProjectId,
		ResearcherId: p.ResearcherId,
		DiseaseFocus: p.DiseaseFocus,
		SessionId:    p.SessionId,
		Status:       p.Status,
		QueryCount:   p.QueryCount,
		CreatedAt:    p.CreatedAt.UTC(),
		LastUpdated:  p.LastUpdated.UTC(),
	}
}

func (m *ResearchSessionMapper) ToProjectEntities(models []*model.ResearchProject) []*entity.ProjectRecord {
	out := make([]*entity.ProjectRecord, 0, len(models))
	for _, p := range models {
		out = append(out, m.ToProjectEntity(p))
	}
	return out
}
