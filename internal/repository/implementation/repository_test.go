package implementation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/model"
	"research-assistant-be/internal/repository/contract"
	"research-assistant-be/internal/repository/specification"
	"research-assistant-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, database.MemoryDSN(uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestResearchSessionUpsertKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewResearchSessionRepository(db)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s, err := entity.NewResearchSession("r1", "p1", "diabetes", created)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, s))

	s.MessageCount = 3
	s.LastUpdated = created.Add(time.Hour)
	s.CreatedAt = created.Add(48 * time.Hour)
	require.NoError(t, repo.Upsert(ctx, s))

	got, err := repo.FindOne(ctx, specification.ByID{ID: s.Id})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.MessageCount)
	assert.True(t, got.LastUpdated.Equal(created.Add(time.Hour)))

	var row model.ResearchSession
	require.NoError(t, db.First(&row, "id = ?", s.Id).Error)
	assert.True(t, row.CreatedAt.Equal(created))

	count, err := repo.Count(ctx, specification.ByResearcher{ResearcherID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestResearchSessionFindOneMissing(t *testing.T) {
	repo := NewResearchSessionRepository(newTestDB(t))
	got, err := repo.FindOne(context.Background(), specification.ByID{ID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteUpdatedBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewResearchSessionRepository(newTestDB(t))
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	old, _ := entity.NewResearchSession("r1", "p1", "asthma", now.AddDate(0, 0, -40))
	edge, _ := entity.NewResearchSession("r1", "p2", "asthma", now.AddDate(0, 0, -30))
	fresh, _ := entity.NewResearchSession("r1", "p3", "asthma", now.AddDate(0, 0, -1))
	for _, s := range []*entity.ResearchSession{old, edge, fresh} {
		require.NoError(t, repo.Upsert(ctx, s))
	}

	ids, err := repo.DeleteUpdatedBefore(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, []string{old.Id}, ids)

	ids, err = repo.DeleteUpdatedBefore(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Empty(t, ids)

	latest, err := repo.LatestActivity(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Equal(fresh.LastUpdated))
}

func summary(id, focus string, created time.Time) *entity.LiteratureSummary {
	return &entity.LiteratureSummary{
		Id:             id,
		ResearcherId:   "r1",
		ProjectId:      "p1",
		Title:          "Study " + id,
		Authors:        []string{"Smith J"},
		Journal:        "NEJM",
		KeyFindings:    []string{"finding " + id},
		TreatmentFocus: focus,
		Confidence:     0.8,
		CreatedAt:      created,
	}
}

func TestLiteratureNewestAndFocusFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewLiteratureSummaryRepository(newTestDB(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		focus := "Metformin therapy"
		if i%2 == 1 {
			focus = "insulin"
		}
		require.NoError(t, repo.Upsert(ctx, summary(fmt.Sprintf("s%02d", i), focus, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := repo.FindNewest(ctx, 10, specification.ByResearcher{ResearcherID: "r1"}, specification.ByProject{})
	require.NoError(t, err)
	require.Len(t, all, 10)
	assert.Equal(t, "s11", all[0].Id)

	metformin, err := repo.FindNewest(ctx, 10, specification.ByResearcher{ResearcherID: "r1"}, specification.TreatmentFocusContains("METFORMIN"))
	require.NoError(t, err)
	require.Len(t, metformin, 6)
	assert.Equal(t, "s10", metformin[0].Id)
	assert.Equal(t, []string{"Smith J"}, metformin[0].Authors)

	none, err := repo.FindNewest(ctx, 10, specification.ByResearcher{ResearcherID: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestApprovedLiteratureRejectsResave(t *testing.T) {
	ctx := context.Background()
	repo := NewLiteratureSummaryRepository(newTestDB(t))
	s := summary("s1", "statins", time.Now().UTC())
	require.NoError(t, repo.Upsert(ctx, s))

	s.Title = "Updated"
	require.NoError(t, repo.Upsert(ctx, s))
	require.NoError(t, repo.MarkApproved(ctx, "s1"))

	s.Title = "Tampered"
	s.KeyFindings = []string{"B"}
	s.Approved = false
	err := repo.Upsert(ctx, s)
	assert.ErrorIs(t, err, contract.ErrApproved)

	got, err := repo.FindOne(ctx, specification.ByID{ID: "s1"})
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Equal(t, "Updated", got.Title)
	assert.NotEqual(t, []string{"B"}, got.KeyFindings)
}

func TestApprovedComparisonRejectsResave(t *testing.T) {
	ctx := context.Background()
	repo := NewTreatmentComparisonRepository(newTestDB(t))
	c := &entity.TreatmentComparison{
		Id:               "c1",
		ResearcherId:     "r1",
		ProjectId:        "p1",
		Treatments:       []string{"metformin", "insulin"},
		DiseaseCondition: "Type 2 Diabetes",
		Recommendation:   "metformin first",
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(ctx, c))
	require.NoError(t, repo.MarkApproved(ctx, "c1"))

	c.Recommendation = "insulin first"
	assert.ErrorIs(t, repo.Upsert(ctx, c), contract.ErrApproved)

	got, err := repo.FindOne(ctx, specification.ByID{ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "metformin first", got.Recommendation)
}

func TestTreatmentComparisonRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewTreatmentComparisonRepository(newTestDB(t))
	c := &entity.TreatmentComparison{
		Id:               "c1",
		ResearcherId:     "r1",
		ProjectId:        "p1",
		Treatments:       []string{"metformin", "insulin"},
		DiseaseCondition: "Type 2 Diabetes",
		EfficacyMetrics:  map[string]string{"metformin": "HbA1c -1.1%"},
		SideEffects:      map[string][]string{"insulin": {"hypoglycemia"}},
		ConfidenceLevel:  "moderate",
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(ctx, c))

	got, err := repo.FindNewest(ctx, 5, specification.DiseaseConditionContains("diabetes"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.Treatments, got[0].Treatments)
	assert.Equal(t, c.EfficacyMetrics, got[0].EfficacyMetrics)
	assert.Equal(t, c.SideEffects, got[0].SideEffects)
	assert.Nil(t, got[0].PopulationDifferences)

	n, err := repo.Count(ctx, specification.ByResearcher{ResearcherID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestApprovalRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewApprovalRequestRepository(newTestDB(t))
	now := time.Now().UTC()
	a := &entity.ApprovalRequest{
		Id:           "a1",
		SessionId:    "s1",
		ResearcherId: "r1",
		ResponseId:   "resp1",
		ContentType:  entity.ContentTypeTreatmentComparison,
		Content:      entity.ResponsePayload{Text: "compare"},
		Confidence:   0.5,
		Priority:     entity.ApprovalPriorityHigh,
		Status:       entity.ApprovalStatusPending,
		Criteria:     []string{"check safety"},
		CreatedAt:    now,
	}
	require.NoError(t, repo.Upsert(ctx, a))

	a.Status = entity.ApprovalStatusApproved
	a.ReviewerId = "dr-k"
	a.ReviewedAt = &now
	require.NoError(t, repo.Upsert(ctx, a))

	got, err := repo.FindOne(ctx, specification.ByID{ID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalStatusApproved, got.Status)
	assert.Equal(t, "compare", got.Content.Text)
	require.NotNil(t, got.ReviewedAt)

	pending, err := repo.Count(ctx, specification.ByStatus{Status: string(entity.ApprovalStatusPending)})
	require.NoError(t, err)
	assert.Zero(t, pending)

	n, err := repo.DeleteBySessionIDs(ctx, []string{"s1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProjectUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewResearchProjectRepository(newTestDB(t))
	now := time.Now().UTC()
	p := &entity.ProjectRecord{ProjectId: "p1", ResearcherId: "r1", DiseaseFocus: "asthma", QueryCount: 2, CreatedAt: now, LastUpdated: now}
	require.NoError(t, repo.Upsert(ctx, p))
	p.QueryCount = 5
	require.NoError(t, repo.Upsert(ctx, p))

	all, err := repo.FindAll(ctx, specification.ByResearcher{ResearcherID: "r1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 5, all[0].QueryCount)
}
