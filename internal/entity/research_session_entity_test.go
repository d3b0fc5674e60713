package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResearchSession(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	s, err := NewResearchSession("dr_smith", "proj-1", "diabetes", now)
	require.NoError(t, err)

	assert.NotEmpty(t, s.Id)
	assert.Equal(t, SchemaVersion, s.SchemaVersion)
	assert.Equal(t, now, s.CreatedAt)
	assert.NotNil(t, s.CurrentQueries)
	assert.Empty(t, s.CurrentQueries)
	assert.Empty(t, s.PendingApprovals)
	assert.False(t, s.MemoryTrimmed)
	assert.Zero(t, s.MessageCount)
}

func TestNewResearchSessionRejectsMissingIdentity(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name       string
		researcher string
		project    string
		focus      string
	}{
		{"missing researcher", "", "p", "asthma"},
		{"missing project", "r", "  ", "asthma"},
		{"missing focus", "r", "p", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResearchSession(tt.researcher, tt.project, tt.focus, now)
			assert.Error(t, err)
		})
	}
}

func TestValidateRequiresCurrentQueriesList(t *testing.T) {
	s, err := NewResearchSession("r", "p", "copd", time.Now())
	require.NoError(t, err)

	s.CurrentQueries = nil
	assert.ErrorIs(t, s.Validate(), ErrCurrentQueriesNil)
}

func TestCloneIsDeep(t *testing.T) {
	s, err := NewResearchSession("r", "p", "copd", time.Now())
	require.NoError(t, err)
	q, err := NewQuery("copd inhaler therapy", time.Now())
	require.NoError(t, err)
	s.CurrentQueries = append(s.CurrentQueries, q)

	c, err := s.Clone()
	require.NoError(t, err)
	c.CurrentQueries[0].Text = "changed"

	assert.Equal(t, "copd inhaler therapy", s.CurrentQueries[0].Text)
}

func TestMergeLiteratureReplacesById(t *testing.T) {
	s, err := NewResearchSession("r", "p", "copd", time.Now())
	require.NoError(t, err)

	s.MergeLiterature([]*LiteratureSummary{{Id: "a", Title: "one"}, {Id: "b", Title: "two"}})
	s.MergeLiterature([]*LiteratureSummary{{Id: "a", Title: "one-updated"}})

	require.Len(t, s.LiteratureSummaries, 2)
	assert.Equal(t, "one-updated", s.LiteratureSummaries[0].Title)
}

func TestFindApprovalAcrossLists(t *testing.T) {
	s, err := NewResearchSession("r", "p", "copd", time.Now())
	require.NoError(t, err)
	s.FlaggedContent = append(s.FlaggedContent, &ApprovalRequest{Id: "x"})

	assert.NotNil(t, s.FindApproval("x"))
	assert.Nil(t, s.FindApproval("missing"))
}
