package domain

import "time"

// ProcessingResult aggregates everything the pipeline produced for one
// request. It is assembled exactly once by the orchestrator and
// immutable once returned.
type ProcessingResult struct {
	RequestID      string
	Classification Classification
	Snippets       []KnowledgeSnippet
	Response       string
	Escalation     EscalationVerdict
	ProcessingTime time.Duration
}
