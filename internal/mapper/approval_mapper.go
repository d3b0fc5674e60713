package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type ApprovalMapper struct{}

func NewApprovalMapper() *ApprovalMapper {
	return &ApprovalMapper{}
}

func (m *ApprovalMapper) ToModel(a *entity.ApprovalRequest) (*model.ApprovalRequest, error) {
	if a == nil {
		return nil, nil
	}
	content, err := json.Marshal(a.Content)
	if err != nil {
		return nil, fmt.Errorf("encode approval %s content: %w", a.Id, err)
	}
	return &model.ApprovalRequest{
		Id:                     a.Id,
		SessionId:              a.SessionId,
		ResearcherId:           a.ResearcherId,
		ResponseId:             a.ResponseId,
		QueryId:                a.QueryId,
		ContentType:            string(a.ContentType),
		Content:                datatypes.JSON(content),
		Confidence:             a.Confidence,
		Priority:               string(a.Priority),
		Status:                 string(a.Status),
		Criteria:               datatypes.JSONSlice[string](a.Criteria),
		EstimatedReviewMinutes: a.EstimatedReviewMinutes,
		AutoApproved:           a.AutoApproved,
		Escalated:              a.Escalated,
		EscalationReason:       a.EscalationReason,
		ReviewerId:             a.ReviewerId,
		Feedback:               a.Feedback,
		CreatedAt:              a.CreatedAt,
		ReviewedAt:             a.ReviewedAt,
	}, nil
}

func (m *ApprovalMapper) ToEntity(a *model.ApprovalRequest) (*entity.ApprovalRequest, error) {
	if a == nil {
		return nil, nil
	}
	var content entity.ResponsePayload
	if len(a.Content) > 0 {
		if err := json.Unmarshal(a.Content, &content); err != nil {
			return nil, fmt.Errorf("decode approval %s content: %w", a.Id, err)
		}
	}
	var reviewedAt *time.Time
	if a.ReviewedAt != nil {
		t := a.ReviewedAt.UTC()
		reviewedAt = &t
	}
	return &entity.ApprovalRequest{
		Id:                     a.Id,
		SessionId:              a.SessionId,
		ResearcherId:           a.ResearcherId,
		ResponseId:             a.ResponseId,
		QueryId:                a.QueryId,
		ContentType:            entity.ContentType(a.ContentType),
		Content:                content,
		Confidence:             a.Confidence,
		Priority:               entity.ApprovalPriority(a.Priority),
		Status:                 entity.ApprovalStatus(a.Status),
		Criteria:               []string(a.Criteria),
		EstimatedReviewMinutes: a.EstimatedReviewMinutes,
		AutoApproved:           a.AutoApproved,
		Escalated:              a.Escalated,
		EscalationReason:       a.EscalationReason,
		ReviewerId:             a.ReviewerId,
		Feedback:               a.Feedback,
		CreatedAt:              a.CreatedAt.UTC(),
		ReviewedAt:             reviewedAt,
	}, nil
}

func (m *ApprovalMapper) ToEntities(models []*model.ApprovalRequest) ([]*entity.ApprovalRequest, error) {
	out := make([]*entity.ApprovalRequest, 0, len(models))
	for _, a := range models {
		e, err := m.ToEntity(a)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
