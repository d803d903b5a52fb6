package model

import (
	"time"

	"github.com/google/uuid"
)

// TurnID identifies one chat turn in logs and responses.
type TurnID string

// NewTurnID generates a new UUID v4 TurnID
func NewTurnID() TurnID {
	return TurnID(uuid.New().String())
}

// Intent is the outcome of the pre-retrieval intent filter.
type Intent string

const (
	// IntentChat is an ordinary message grounded by similarity retrieval.
	IntentChat Intent = "chat"
	// IntentListMemories asks to enumerate everything known about the user.
	IntentListMemories Intent = "list_memories"
)

// ChatTurn holds the state of one request through the chat pipeline. It is
// never persisted.
type ChatTurn struct {
	ID        TurnID
	UserID    UserID
	Message   string
	Intent    Intent
	Retrieved []*Memory
	Prompt    string
	RawOutput string
	Reply     string
	Outcomes  []*CandidateOutcome
	StartedAt time.Time
}

// SavedIDs returns the identifiers of memories persisted during the turn.
func (t *ChatTurn) SavedIDs() []MemoryID {
	ids := make([]MemoryID, 0, len(t.Outcomes))
	for _, o := range t.Outcomes {
		if o.State == CandidatePersisted {
			ids = append(ids, o.MemoryID)
		}
	}
	return ids
}
