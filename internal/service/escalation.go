package service

import "github.com/deskwise/deskwise/internal/domain"

// Escalation reasons, one per rule
const (
	reasonCriticalPriority = "critical priority declared by requester"
	reasonUnclassifiable   = "unclassifiable request"
	reasonLowConfidence    = "low classification confidence"
	reasonNoKnowledge      = "no relevant knowledge found"
	reasonStandardRequest  = "standard request with sufficient confidence and knowledge coverage"
)

// EscalationEngine decides whether a request needs human intervention.
// Decide is a pure function: no side effects, no external calls, fully
// determined by its inputs.
type EscalationEngine struct {
	confidenceThreshold float64
}

func NewEscalationEngine(confidenceThreshold float64) *EscalationEngine {
	return &EscalationEngine{confidenceThreshold: domain.Clamp01(confidenceThreshold)}
}

// Decide evaluates the escalation policy as an ordered decision list;
// the first matching rule wins and later rules are never consulted.
func (e *EscalationEngine) Decide(classification domain.Classification, priority domain.Priority, retrievalCount int) domain.EscalationVerdict {
	switch {
	case priority == domain.PriorityCritical:
		return domain.EscalationVerdict{
			ShouldEscalate: true,
			Reason:         reasonCriticalPriority,
			UrgencyLevel:   domain.UrgencyCritical,
		}
	case classification.Category == domain.CategoryUnknown:
		return domain.EscalationVerdict{
			ShouldEscalate: true,
			Reason:         reasonUnclassifiable,
			UrgencyLevel:   domain.UrgencyHigh,
		}
	case classification.Confidence < e.confidenceThreshold:
		return domain.EscalationVerdict{
			ShouldEscalate: true,
			Reason:         reasonLowConfidence,
			UrgencyLevel:   domain.UrgencyMedium,
		}
	case retrievalCount == 0:
		return domain.EscalationVerdict{
			ShouldEscalate: true,
			Reason:         reasonNoKnowledge,
			UrgencyLevel:   domain.UrgencyMedium,
		}
	default:
		return domain.EscalationVerdict{
			ShouldEscalate: false,
			Reason:         reasonStandardRequest,
			UrgencyLevel:   domain.UrgencyForPriority(priority),
		}
	}
}
