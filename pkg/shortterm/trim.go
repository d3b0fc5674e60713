package shortterm

import (
	"research-assistant-be/internal/constant"
	"research-assistant-be/internal/entity"
)

// Limits caps each bounded short-term list. Zero or negative disables a cap.
type Limits struct {
	Responses    int
	Conversation int
	Queries      int
}

func DefaultLimits() Limits {
	return Limits{
		Responses:    constant.DefaultMaxShortTermItems,
		Conversation: constant.DefaultMaxConversationTurns,
		Queries:      constant.DefaultMaxShortTermItems,
	}
}

// UniformLimits applies the same cap to every list.
func UniformLimits(m int) Limits {
	return Limits{Responses: m, Conversation: m, Queries: m}
}

// Outcome reports how many entries were dropped from each list.
type Outcome struct {
	DroppedResponses    int `json:"dropped_responses"`
	DroppedConversation int `json:"dropped_conversation"`
	DroppedQueries      int `json:"dropped_queries"`
}

func (o Outcome) Trimmed() bool {
	return o.DroppedResponses+o.DroppedConversation+o.DroppedQueries > 0
}

// Trim keeps the most recently appended entries of each bounded list and sets
// memory_trimmed when anything was cut. Running it twice is a no-op.
func Trim(s *entity.ResearchSession, l Limits) Outcome {
	var out Outcome
	s.SessionResponses, out.DroppedResponses = keepLast(s.SessionResponses, l.Responses)
	s.ActiveConversation, out.DroppedConversation = keepLast(s.ActiveConversation, l.Conversation)
	s.CurrentQueries, out.DroppedQueries = keepLast(s.CurrentQueries, l.Queries)
	if out.Trimmed() {
		s.MemoryTrimmed = true
	}
	return out
}

func keepLast[T any](items []T, max int) ([]T, int) {
	if max <= 0 || len(items) <= max {
		return items, 0
	}
	dropped := len(items) - max
	kept := make([]T, max)
	copy(kept, items[dropped:])
	return kept, dropped
}
