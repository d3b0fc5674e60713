package main

import (
	"bytes"
	"testing"

	"research-assistant-be/internal/config"
	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/entity"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRenderConfigRedactsSecrets(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "postgres", Connection: "host=db password=hunter2"},
		SMTP:     config.SMTPConfig{Host: "smtp.example.org", Password: "mailpass"},
		Ai:       config.AIConfig{LLMProvider: "huggingface", HuggingFaceAPIKey: "hf_secret"},
		Pipeline: config.DefaultPipeline(),
	}

	data, err := renderConfig(cfg)
	require.NoError(t, err)
	text := string(data)
	assert.NotContains(t, text, "hunter2")
	assert.NotContains(t, text, "mailpass")
	assert.NotContains(t, text, "hf_secret")
	assert.Contains(t, text, "smtp.example.org")

	var decoded config.Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, redacted, decoded.Database.Connection)
	assert.Equal(t, cfg.Pipeline.MaxShortTermItems, decoded.Pipeline.MaxShortTermItems)

	// the caller's config is untouched
	assert.Equal(t, "mailpass", cfg.SMTP.Password)
}

func TestApprovalLineShowsPriority(t *testing.T) {
	noColor = true
	t.Cleanup(func() { noColor = false })

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printer(cmd).approval(&dto.ApprovalResponse{ApprovalRequest: &entity.ApprovalRequest{
		Id:          "a1",
		SessionId:   "s1",
		ContentType: entity.ContentTypeTreatmentComparison,
		Priority:    entity.ApprovalPriorityUrgent,
		Confidence:  0.42,
	}})
	line := buf.String()
	assert.Contains(t, line, "urgent")
	assert.Contains(t, line, "a1")
	assert.Contains(t, line, "conf=0.42")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"cleanup", "config", "stats", "digest", "pending"} {
		assert.True(t, names[want], want)
	}
}
