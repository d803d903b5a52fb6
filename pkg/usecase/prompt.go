package usecase

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/memora/pkg/domain/model"
)

const (
	existingMemoriesLabel = "Existing Memories:"
	memorySeparator       = "\n---\n"
)

// AssemblePrompt builds the literal text sent to the completion provider.
// The Existing Memories block is omitted when memories is empty. Memory
// content is never truncated.
func AssemblePrompt(memories []*model.Memory, instructions, question string) string {
	var sb strings.Builder

	sb.WriteString(instructions)

	if len(memories) > 0 {
		entries := make([]string, len(memories))
		for i, m := range memories {
			entries[i] = formatMemoryEntry(i+1, m)
		}

		sb.WriteString("\n\n")
		sb.WriteString(existingMemoriesLabel)
		sb.WriteString("\n")
		sb.WriteString(strings.Join(entries, memorySeparator))
	}

	sb.WriteString("\n\n")
	sb.WriteString(questionLabel)
	sb.WriteString(question)

	return sb.String()
}

const questionLabel = "Question: "

func formatMemoryEntry(n int, m *model.Memory) string {
	entry := fmt.Sprintf("Memory %d (id:%d): %s", n, m.ID, m.Content)
	if m.Category != "" && m.Category != model.DefaultCategory {
		entry += fmt.Sprintf(" [category: %s]", m.Category)
	}
	if len(m.Tags) > 0 {
		entry += fmt.Sprintf(" [tags: %s]", strings.Join(m.Tags, ", "))
	}
	return entry
}
