package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
	domainConfig "github.com/secmon-lab/memora/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// Chat holds the path of the optional chat tuning file.
type Chat struct {
	path string
}

// chatFile is the TOML layout of the chat tuning file. Unset keys keep
// their defaults.
type chatFile struct {
	Persona   *string `toml:"persona"`
	Retrieval struct {
		Limit         *int `toml:"limit"`
		MinResults    *int `toml:"min_results"`
		FallbackLimit *int `toml:"fallback_limit"`
	} `toml:"retrieval"`
	Extraction struct {
		Mode                   *string   `toml:"mode"`
		MinContentLength       *int      `toml:"min_content_length"`
		GenericPatterns        *[]string `toml:"generic_patterns"`
		BlockedTags            *[]string `toml:"blocked_tags"`
		NearDuplicateThreshold *float64  `toml:"near_duplicate_threshold"`
		UseClassifier          *bool     `toml:"use_classifier"`
		SerializePerUser       *bool     `toml:"serialize_per_user"`
	} `toml:"extraction"`
	Intent struct {
		ListPatterns *[]string `toml:"list_patterns"`
	} `toml:"intent"`
}

func (c *Chat) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "chat-config",
			Usage:       "Path to a TOML file tuning retrieval, extraction and intent detection",
			Category:    "Chat",
			Sources:     cli.EnvVars("MEMORA_CHAT_CONFIG"),
			Destination: &c.path,
		},
	}
}

func (c Chat) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", c.path))
}

// Configure returns the default chat configuration overlaid with the file,
// if one was given.
func (c *Chat) Configure() (*domainConfig.ChatConfig, error) {
	if c.path == "" {
		return domainConfig.DefaultChatConfig(), nil
	}
	return LoadChatConfig(c.path)
}

// LoadChatConfig reads and validates a chat tuning file.
func LoadChatConfig(path string) (*domainConfig.ChatConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "chat config not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read chat config", goerr.V(ConfigPathKey, path))
	}

	var file chatFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML chat config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	cfg := domainConfig.DefaultChatConfig()
	file.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "chat config validation failed",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}
	return cfg, nil
}

func (f *chatFile) apply(cfg *domainConfig.ChatConfig) {
	setIf(&cfg.Persona, f.Persona)

	setIf(&cfg.Retrieval.Limit, f.Retrieval.Limit)
	setIf(&cfg.Retrieval.MinResults, f.Retrieval.MinResults)
	setIf(&cfg.Retrieval.FallbackLimit, f.Retrieval.FallbackLimit)

	if f.Extraction.Mode != nil {
		cfg.Extraction.Mode = model.ExtractionMode(*f.Extraction.Mode)
	}
	setIf(&cfg.Extraction.MinContentLength, f.Extraction.MinContentLength)
	setIf(&cfg.Extraction.GenericPatterns, f.Extraction.GenericPatterns)
	setIf(&cfg.Extraction.BlockedTags, f.Extraction.BlockedTags)
	setIf(&cfg.Extraction.NearDuplicateThreshold, f.Extraction.NearDuplicateThreshold)
	setIf(&cfg.Extraction.UseClassifier, f.Extraction.UseClassifier)
	setIf(&cfg.Extraction.SerializePerUser, f.Extraction.SerializePerUser)

	setIf(&cfg.Intent.ListPatterns, f.Intent.ListPatterns)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
