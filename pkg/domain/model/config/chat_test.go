package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/domain/model/config"
)

func TestDefaultChatConfigIsValid(t *testing.T) {
	cfg := config.DefaultChatConfig()
	gt.NoError(t, cfg.Validate())
	gt.Value(t, cfg.Extraction.Mode).Equal(model.ExtractionInline)
	gt.Value(t, cfg.Extraction.MinContentLength).Equal(10)
	gt.Value(t, cfg.Extraction.NearDuplicateThreshold).Equal(0.15)
}

func TestChatConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.ChatConfig)
	}{
		{"zero limit", func(c *config.ChatConfig) { c.Retrieval.Limit = 0 }},
		{"negative min results", func(c *config.ChatConfig) { c.Retrieval.MinResults = -1 }},
		{"zero fallback", func(c *config.ChatConfig) { c.Retrieval.FallbackLimit = 0 }},
		{"unknown mode", func(c *config.ChatConfig) { c.Extraction.Mode = "telepathy" }},
		{"zero min length", func(c *config.ChatConfig) { c.Extraction.MinContentLength = 0 }},
		{"threshold out of range", func(c *config.ChatConfig) { c.Extraction.NearDuplicateThreshold = 3 }},
		{"bad generic pattern", func(c *config.ChatConfig) { c.Extraction.GenericPatterns = []string{"("} }},
		{"bad intent pattern", func(c *config.ChatConfig) { c.Intent.ListPatterns = []string{"["} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultChatConfig()
			tt.mutate(cfg)
			gt.Value(t, cfg.Validate()).NotNil()
		})
	}
}
