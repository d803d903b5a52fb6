package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/secmon-lab/memora/pkg/domain/model"
)

var (
	// [MEMORY: <fact> | <tag>, <tag>, <tag>]
	memoryDirective = regexp.MustCompile(`\[MEMORY:\s*([^\]|]+?)\s*\|\s*([^\]]*?)\s*\]`)

	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	spaceBeforeMark = regexp.MustCompile(`[ \t]+([.,;:!?])`)
	trailingSpace   = regexp.MustCompile(`[ \t]+\n`)
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
)

// InlineExtractor finds [MEMORY: fact | tags] directives the model embedded
// in its reply and strips them from what the user sees.
type InlineExtractor struct {
	instructions string
}

var _ MemoryExtractor = &InlineExtractor{}

func NewInlineExtractor() *InlineExtractor {
	return &InlineExtractor{
		instructions: mustRenderPrompt(memoryDirectivePrompt, promptData{MaxTags: model.MaxTags}),
	}
}

func (x *InlineExtractor) Mode() model.ExtractionMode { return model.ExtractionInline }

func (x *InlineExtractor) Instructions() string { return x.instructions }

func (x *InlineExtractor) ExtractFromMessage(ctx context.Context, message string) ([]model.MemoryCandidate, error) {
	return nil, nil
}

func (x *InlineExtractor) ExtractFromReply(ctx context.Context, reply string) ([]model.MemoryCandidate, string) {
	return ParseMemoryDirectives(reply)
}

// ParseMemoryDirectives returns every directive in reply, in order, and the
// reply with all of them removed and whitespace collapsed.
func ParseMemoryDirectives(reply string) ([]model.MemoryCandidate, string) {
	matches := memoryDirective.FindAllStringSubmatch(reply, -1)

	candidates := make([]model.MemoryCandidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, model.MemoryCandidate{
			Content: strings.TrimSpace(m[1]),
			Tags:    splitTags(m[2]),
		})
	}

	return candidates, cleanReply(memoryDirective.ReplaceAllString(reply, ""))
}

func cleanReply(s string) string {
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = spaceBeforeMark.ReplaceAllString(s, "$1")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
