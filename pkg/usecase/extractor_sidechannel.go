package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

const (
	sideChannelSystemPrompt = "You extract personal facts from chat messages. Follow the output format exactly."
	extractPrefix           = "extract:"
	tagsPrefix              = "tags:"
	extractNone             = "NONE"
)

// SideChannelExtractor classifies the user message with a dedicated
// completion call. It never changes the primary reply.
type SideChannelExtractor struct {
	completer interfaces.Completer
}

var _ MemoryExtractor = &SideChannelExtractor{}

func NewSideChannelExtractor(completer interfaces.Completer) *SideChannelExtractor {
	return &SideChannelExtractor{completer: completer}
}

func (x *SideChannelExtractor) Mode() model.ExtractionMode { return model.ExtractionSideChannel }

func (x *SideChannelExtractor) Instructions() string { return "" }

func (x *SideChannelExtractor) ExtractFromMessage(ctx context.Context, message string) ([]model.MemoryCandidate, error) {
	prompt, err := renderPrompt(sideChannelPrompt, promptData{MaxTags: model.MaxTags, Message: message})
	if err != nil {
		return nil, err
	}

	out, err := x.completer.Complete(ctx, prompt, sideChannelSystemPrompt)
	if err != nil {
		return nil, goerr.Wrap(err, "side-channel extraction failed")
	}

	if c, ok := ParseSideChannelOutput(out); ok {
		return []model.MemoryCandidate{c}, nil
	}
	return nil, nil
}

func (x *SideChannelExtractor) ExtractFromReply(ctx context.Context, reply string) ([]model.MemoryCandidate, string) {
	return nil, reply
}

// ParseSideChannelOutput reads the "Extract: <fact>" / "Tags: a, b" answer.
// "Extract: NONE", an empty fact or a missing Extract line yield false.
func ParseSideChannelOutput(out string) (model.MemoryCandidate, bool) {
	var (
		candidate model.MemoryCandidate
		found     bool
	)

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, extractPrefix) && !found:
			fact := strings.TrimSpace(line[len(extractPrefix):])
			if fact == "" || strings.EqualFold(strings.Trim(fact, ".\"'"), extractNone) {
				return model.MemoryCandidate{}, false
			}
			candidate.Content = fact
			found = true
		case strings.HasPrefix(lower, tagsPrefix):
			candidate.Tags = splitTags(line[len(tagsPrefix):])
		}
	}

	if !found {
		return model.MemoryCandidate{}, false
	}
	if candidate.Tags == nil {
		candidate.Tags = []string{}
	}
	return candidate, true
}
