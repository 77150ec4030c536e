package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Priority
	}{
		{"Low", "low", PriorityLow},
		{"Medium", "medium", PriorityMedium},
		{"High", "high", PriorityHigh},
		{"Critical", "critical", PriorityCritical},
		{"UpperCase", "CRITICAL", PriorityCritical},
		{"EmptyDefaultsMedium", "", PriorityMedium},
		{"GarbageDefaultsMedium", "whenever", PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePriority(tt.input))
		})
	}
}

func TestNewRequestInvalidPriorityDefaultsMedium(t *testing.T) {
	req := NewRequest("id-1", "help", "user-1", Priority("bogus"), time.Now())
	assert.Equal(t, PriorityMedium, req.Priority)
}

func TestUrgencyForPriority(t *testing.T) {
	assert.Equal(t, UrgencyLow, UrgencyForPriority(PriorityLow))
	assert.Equal(t, UrgencyMedium, UrgencyForPriority(PriorityMedium))
	assert.Equal(t, UrgencyHigh, UrgencyForPriority(PriorityHigh))
	assert.Equal(t, UrgencyCritical, UrgencyForPriority(PriorityCritical))
}
