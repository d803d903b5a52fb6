package provider

import (
	"strings"
	"time"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultCompletionModel = "gpt-4o-mini"
)

// Config is the explicit configuration of the HTTP provider client.
// Blank URLs disable the corresponding capability.
type Config struct {
	CompletionURL   string
	CompletionKey   string `masq:"secret"`
	CompletionModel string

	EmbeddingURL   string
	EmbeddingKey   string `masq:"secret"`
	EmbeddingModel string
	// EmbeddingListInput sends {"inputs": [text]} instead of {"inputs": text}.
	EmbeddingListInput bool

	ClassifierURL string
	ClassifierKey string `masq:"secret"`

	// RequireKey forces the key check for endpoints not known to need one.
	RequireKey bool
	Timeout    time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) completionModel() string {
	if c.CompletionModel == "" {
		return DefaultCompletionModel
	}
	return c.CompletionModel
}

// requiresKey reports whether url is a hosted endpoint that rejects
// anonymous calls.
func (c Config) requiresKey(url string) bool {
	if c.RequireKey {
		return true
	}
	return strings.Contains(url, "api.openai.com") || strings.Contains(url, "huggingface.co")
}
