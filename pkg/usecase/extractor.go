package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

// MemoryExtractor proposes memory candidates for a chat turn. The chat
// pipeline calls ExtractFromMessage concurrently with the main completion
// and ExtractFromReply once the raw reply is available.
type MemoryExtractor interface {
	Mode() model.ExtractionMode
	// Instructions is appended to the persona in the system prompt.
	Instructions() string
	ExtractFromMessage(ctx context.Context, message string) ([]model.MemoryCandidate, error)
	// ExtractFromReply returns the candidates found in reply together with
	// the reply to show the user.
	ExtractFromReply(ctx context.Context, reply string) ([]model.MemoryCandidate, string)
}

// NewMemoryExtractor returns the extractor for mode.
func NewMemoryExtractor(mode model.ExtractionMode, completer interfaces.Completer) (MemoryExtractor, error) {
	switch mode {
	case model.ExtractionInline, "":
		return NewInlineExtractor(), nil
	case model.ExtractionSideChannel:
		return NewSideChannelExtractor(completer), nil
	default:
		return nil, goerr.New("unknown extraction mode", goerr.V("mode", mode))
	}
}

// splitTags splits a comma separated tag list, trimming each tag, dropping
// empty ones and keeping at most model.MaxTags.
func splitTags(raw string) []string {
	return model.NormalizeTags(strings.Split(raw, ","))
}

//go:embed prompt/memory_directive.md
var memoryDirectivePromptTmpl string

var memoryDirectivePrompt = template.Must(template.New("memory_directive").Parse(memoryDirectivePromptTmpl))

//go:embed prompt/side_channel.md
var sideChannelPromptTmpl string

var sideChannelPrompt = template.Must(template.New("side_channel").Parse(sideChannelPromptTmpl))

type promptData struct {
	MaxTags int
	Message string
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render prompt", goerr.V("template", tmpl.Name()))
	}
	return buf.String(), nil
}

func mustRenderPrompt(tmpl *template.Template, data promptData) string {
	s, err := renderPrompt(tmpl, data)
	if err != nil {
		panic(err)
	}
	return s
}
