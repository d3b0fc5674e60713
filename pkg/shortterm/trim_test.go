package shortterm

import (
	"fmt"
	"testing"
	"time"

	"research-assistant-be/internal/entity"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *entity.ResearchSession {
	t.Helper()
	s, err := entity.NewResearchSession("dr_lee", "proj-7", "asthma", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return s
}

func TestTrimKeepsLastSevenResponsesInOrder(t *testing.T) {
	s := newSession(t)
	for i := 0; i < 10; i++ {
		s.SessionResponses = append(s.SessionResponses, &entity.Response{Id: fmt.Sprintf("r%d", i)})
	}

	out := Trim(s, DefaultLimits())

	require.Len(t, s.SessionResponses, 7)
	for i, r := range s.SessionResponses {
		assert.Equal(t, fmt.Sprintf("r%d", i+3), r.Id)
	}
	assert.True(t, s.MemoryTrimmed)
	assert.Equal(t, 3, out.DroppedResponses)
}

func TestTrimConversationCap(t *testing.T) {
	s := newSession(t)
	for i := 0; i < 12; i++ {
		s.ActiveConversation = append(s.ActiveConversation, &entity.ConversationTurn{Content: fmt.Sprint(i)})
	}

	Trim(s, DefaultLimits())

	assert.Len(t, s.ActiveConversation, 10)
	assert.Equal(t, "2", s.ActiveConversation[0].Content)
	assert.True(t, s.MemoryTrimmed)
}

func TestTrimUnderLimitLeavesFlag(t *testing.T) {
	s := newSession(t)
	s.SessionResponses = append(s.SessionResponses, &entity.Response{Id: "only"})

	out := Trim(s, DefaultLimits())

	assert.False(t, out.Trimmed())
	assert.False(t, s.MemoryTrimmed)
	assert.NotNil(t, s.CurrentQueries)
}

func TestTrimIsIdempotent(t *testing.T) {
	for _, m := range []int{1, 3, 7} {
		t.Run(fmt.Sprintf("M=%d", m), func(t *testing.T) {
			s := newSession(t)
			for i := 0; i < 9; i++ {
				s.SessionResponses = append(s.SessionResponses, &entity.Response{Id: fmt.Sprint(i)})
				s.ActiveConversation = append(s.ActiveConversation, &entity.ConversationTurn{Content: fmt.Sprint(i)})
				s.CurrentQueries = append(s.CurrentQueries, &entity.Query{Id: fmt.Sprint(i)})
			}

			Trim(s, UniformLimits(m))
			once, err := s.Clone()
			require.NoError(t, err)

			out := Trim(s, UniformLimits(m))

			assert.False(t, out.Trimmed())
			assert.Empty(t, cmp.Diff(once, s))
			assert.LessOrEqual(t, len(s.SessionResponses), m)
			assert.LessOrEqual(t, len(s.ActiveConversation), m)
		})
	}
}

func TestZeroLimitDisablesCap(t *testing.T) {
	s := newSession(t)
	for i := 0; i < 20; i++ {
		s.CurrentQueries = append(s.CurrentQueries, &entity.Query{Id: fmt.Sprint(i)})
	}

	Trim(s, Limits{Responses: 7, Conversation: 10})

	assert.Len(t, s.CurrentQueries, 20)
	assert.False(t, s.MemoryTrimmed)
}
