package model

// ExtractionMode selects the memory extraction strategy.
type ExtractionMode string

const (
	// ExtractionInline parses [MEMORY: fact | tags] directives out of the
	// assistant reply.
	ExtractionInline ExtractionMode = "inline"
	// ExtractionSideChannel classifies the user message with a dedicated
	// extraction call that runs alongside the main completion.
	ExtractionSideChannel ExtractionMode = "side_channel"
)

// Validate reports whether the mode is known.
func (x ExtractionMode) Validate() bool {
	return x == ExtractionInline || x == ExtractionSideChannel
}

// MemoryCandidate is a fact proposed for persistence by an extractor.
type MemoryCandidate struct {
	Content string
	Tags    []string
}

// CandidateState is the terminal state of a candidate within one turn.
type CandidateState string

const (
	CandidateRejected       CandidateState = "rejected"
	CandidateExactDuplicate CandidateState = "exact_duplicate"
	CandidateNearDuplicate  CandidateState = "near_duplicate"
	CandidatePersisted      CandidateState = "persisted"
	// CandidateFailed means the candidate was accepted but the insert failed.
	CandidateFailed CandidateState = "failed"
)

// RejectReason explains why the acceptance policy refused a candidate.
type RejectReason string

const (
	RejectTooShort     RejectReason = "too_short"
	RejectGeneric      RejectReason = "generic_content"
	RejectBlockedTag   RejectReason = "blocked_tag"
	RejectNotPersonal  RejectReason = "not_personal_fact"
	RejectEmptyContent RejectReason = "empty_content"
)

// CandidateOutcome records what happened to one candidate.
type CandidateOutcome struct {
	Candidate MemoryCandidate
	State     CandidateState
	Reason    RejectReason // set when State is CandidateRejected
	MemoryID  MemoryID     // set when State is CandidatePersisted
}
