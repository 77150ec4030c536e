package domain

import (
	"strings"
	"time"
)

// Priority represents the priority declared by the requester
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// DefaultPriority is assumed when a request declares no priority
const DefaultPriority = PriorityMedium

// ParsePriority normalizes a priority string, defaulting to medium
// for empty or unrecognized values
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityMedium:
		return PriorityMedium
	case PriorityHigh:
		return PriorityHigh
	case PriorityCritical:
		return PriorityCritical
	default:
		return DefaultPriority
	}
}

// IsValid reports whether the priority is one of the known values
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Request represents an incoming help desk request. It is immutable
// once created and discarded after the pipeline completes.
type Request struct {
	ID          string
	Text        string
	UserID      string
	Priority    Priority
	SubmittedAt time.Time
}

// NewRequest creates a Request with the given id and submission time
func NewRequest(id, text, userID string, priority Priority, submittedAt time.Time) *Request {
	if !priority.IsValid() {
		priority = DefaultPriority
	}
	return &Request{
		ID:          id,
		Text:        text,
		UserID:      userID,
		Priority:    priority,
		SubmittedAt: submittedAt,
	}
}
