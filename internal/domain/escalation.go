package domain

// Urgency represents how urgently a request needs human attention
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// UrgencyForPriority mirrors a declared priority as an urgency level,
// used when a request does not escalate
func UrgencyForPriority(p Priority) Urgency {
	switch p {
	case PriorityLow:
		return UrgencyLow
	case PriorityHigh:
		return UrgencyHigh
	case PriorityCritical:
		return UrgencyCritical
	default:
		return UrgencyMedium
	}
}

// EscalationVerdict is the decision of whether a request requires
// human intervention
type EscalationVerdict struct {
	ShouldEscalate bool    `json:"should_escalate"`
	Reason         string  `json:"reason"`
	UrgencyLevel   Urgency `json:"urgency_level"`
}
