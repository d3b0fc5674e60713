package config

import (
	"testing"
	"time"

	"research-assistant-be/pkg/apperr"

	"github.com/stretchr/testify/assert"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CONFIDENCE_THRESHOLD", "0.8")
	t.Setenv("MAX_SHORT_TERM_QUERIES", "5")
	t.Setenv("AUTO_APPROVAL_ENABLED", "true")
	t.Setenv("SENSITIVE_TERMS", "fatal, toxic ,")
	t.Setenv("GENERATION_TIMEOUT_SECONDS", "12")

	cfg := Load()

	assert.Equal(t, 0.8, cfg.Pipeline.ConfidenceThreshold)
	assert.Equal(t, 5, cfg.Pipeline.MaxShortTermItems)
	assert.True(t, cfg.Pipeline.AutoApprovalEnabled)
	assert.Equal(t, []string{"fatal", "toxic"}, cfg.Pipeline.SensitiveTerms)
	assert.Equal(t, 12*time.Second, cfg.Ai.GenerationTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFallsBackOnGarbage(t *testing.T) {
	t.Setenv("MAX_SHORT_TERM_QUERIES", "seven")
	t.Setenv("CONFIDENCE_THRESHOLD", "")

	cfg := Load()

	assert.Equal(t, 7, cfg.Pipeline.MaxShortTermItems)
	assert.Equal(t, 0.7, cfg.Pipeline.ConfidenceThreshold)
}

func TestPipelineValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *PipelineConfig)
	}{
		{"confidence above one", func(p *PipelineConfig) { p.ConfidenceThreshold = 1.5 }},
		{"negative relevance", func(p *PipelineConfig) { p.MedicalRelevanceThreshold = -0.1 }},
		{"zero short-term cap", func(p *PipelineConfig) { p.MaxShortTermItems = 0 }},
		{"zero conversation cap", func(p *PipelineConfig) { p.MaxConversationTurns = 0 }},
		{"negative cleanup", func(p *PipelineConfig) { p.MemoryCleanupDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPipeline()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), apperr.ErrValidation)
		})
	}

	assert.NoError(t, DefaultPipeline().Validate())
}
