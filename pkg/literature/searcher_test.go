package literature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSearchTerms(t *testing.T) {
	terms := ExtractSearchTerms("Latest clinical trial efficacy data for metformin therapy in elderly patients")

	assert.Equal(t, []string{"therapy", "clinical trial", "efficacy", "latest", "clinical"}, terms)
	assert.Empty(t, ExtractSearchTerms("hi"))
}

func TestMockSearcher(t *testing.T) {
	arts, err := NewMockSearcher().Search(context.Background(), []string{"metformin"})
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.Equal(t, "New England Journal of Medicine", arts[0].Journal)
	assert.Contains(t, arts[0].Title, "metformin")
	assert.Equal(t, "The Lancet", arts[1].Journal)

	arts, err = NewMockSearcher().Search(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, arts[0].Title, "Medical Condition")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMockSearcher().Search(ctx, nil)
	assert.Error(t, err)
}
