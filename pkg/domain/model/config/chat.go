package config

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

// DefaultPersona is the assistant persona placed at the top of every prompt.
const DefaultPersona = `You are Memora, a personal memory assistant.
Answer the user's question using the user's memories when they are relevant.
If the memories do not contain the answer, say you don't know instead of guessing.`

// RetrievalConfig tunes the Retrieval Engine.
type RetrievalConfig struct {
	Limit         int // nearest neighbors requested per query
	MinResults    int // below this, fall back to the full memory set
	FallbackLimit int // bound on the full-set fallback
}

// ExtractionConfig tunes memory extraction and the acceptance policy.
type ExtractionConfig struct {
	Mode                   model.ExtractionMode
	MinContentLength       int
	GenericPatterns        []string // regular expressions, matched case-insensitively
	BlockedTags            []string
	NearDuplicateThreshold float64
	UseClassifier          bool
	SerializePerUser       bool
}

// IntentConfig holds the patterns of the pre-retrieval intent filter.
type IntentConfig struct {
	ListPatterns []string // regular expressions, matched case-insensitively
}

// ChatConfig holds every tunable of the chat pipeline.
type ChatConfig struct {
	Persona    string
	Retrieval  RetrievalConfig
	Extraction ExtractionConfig
	Intent     IntentConfig
}

// DefaultChatConfig returns the configuration used when no file is given.
func DefaultChatConfig() *ChatConfig {
	return &ChatConfig{
		Persona: DefaultPersona,
		Retrieval: RetrievalConfig{
			Limit:         5,
			MinResults:    3,
			FallbackLimit: 50,
		},
		Extraction: ExtractionConfig{
			Mode:             model.ExtractionInline,
			MinContentLength: 10,
			GenericPatterns: []string{
				`\banalyz(ing|e|es)\b`,
				`\bthinking\b`,
				`\bthis chat\b`,
				`\bconversation\b`,
				`\bassistant\b`,
			},
			BlockedTags:            []string{"none", "meta", "action", "ai", "system"},
			NearDuplicateThreshold: 0.15,
		},
		Intent: IntentConfig{
			ListPatterns: []string{
				`\b(list|show|tell me|give me|display)\b.*\b(all )?(my )?memories\b`,
				`\bwhat do you (know|remember) about me\b`,
				`\bwhat have you (saved|stored|remembered)\b`,
				`^\s*(my )?memories\??\s*$`,
			},
		},
	}
}

// Validate checks ranges and compiles every pattern once.
func (c *ChatConfig) Validate() error {
	if c.Retrieval.Limit <= 0 {
		return goerr.New("retrieval limit must be positive", goerr.V("limit", c.Retrieval.Limit))
	}
	if c.Retrieval.MinResults < 0 {
		return goerr.New("retrieval min_results must not be negative", goerr.V("min_results", c.Retrieval.MinResults))
	}
	if c.Retrieval.FallbackLimit <= 0 {
		return goerr.New("retrieval fallback_limit must be positive", goerr.V("fallback_limit", c.Retrieval.FallbackLimit))
	}
	if !c.Extraction.Mode.Validate() {
		return goerr.New("unknown extraction mode", goerr.V("mode", c.Extraction.Mode))
	}
	if c.Extraction.MinContentLength < 1 {
		return goerr.New("min_content_length must be positive", goerr.V("min_content_length", c.Extraction.MinContentLength))
	}
	if c.Extraction.NearDuplicateThreshold < 0 || c.Extraction.NearDuplicateThreshold > 2 {
		return goerr.New("near_duplicate_threshold must be within [0, 2]",
			goerr.V("near_duplicate_threshold", c.Extraction.NearDuplicateThreshold))
	}

	for _, p := range c.Extraction.GenericPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return goerr.Wrap(err, "invalid generic pattern", goerr.V("pattern", p))
		}
	}
	for _, p := range c.Intent.ListPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return goerr.Wrap(err, "invalid intent pattern", goerr.V("pattern", p))
		}
	}
	return nil
}
