package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeKeepsTypeAndTime(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	e := New(ApprovalDecided, map[string]interface{}{"approval_id": "a1", "status": "approved"}, at)

	raw, err := Marshal(e)
	require.NoError(t, err)
	back, err := Unmarshal(raw)
	require.NoError(t, err)

	assert.Equal(t, ApprovalDecided, back.EventType())
	assert.True(t, back.Timestamp().Equal(at))
	assert.Equal(t, "a1", back.Payload()["approval_id"])
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	assert.Error(t, err)
}
