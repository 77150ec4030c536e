package domain

import "strings"

// Category represents a help desk request category
type Category string

const (
	CategoryPasswordReset        Category = "password_reset"
	CategorySoftwareInstallation Category = "software_installation"
	CategoryHardwareFailure      Category = "hardware_failure"
	CategoryNetworkConnectivity  Category = "network_connectivity"
	CategoryEmailConfiguration   Category = "email_configuration"
	// CategoryUnknown is the fallback when no category can be assigned
	CategoryUnknown Category = "unknown"
)

// Categories lists the closed set of assignable categories, in a fixed
// order used for prompts and keyword fallback. Unknown is excluded.
func Categories() []Category {
	return []Category{
		CategoryPasswordReset,
		CategorySoftwareInstallation,
		CategoryHardwareFailure,
		CategoryNetworkConnectivity,
		CategoryEmailConfiguration,
	}
}

// ParseCategory maps a string onto the closed category set; anything
// unrecognized maps to unknown.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryPasswordReset:
		return CategoryPasswordReset
	case CategorySoftwareInstallation:
		return CategorySoftwareInstallation
	case CategoryHardwareFailure:
		return CategoryHardwareFailure
	case CategoryNetworkConnectivity:
		return CategoryNetworkConnectivity
	case CategoryEmailConfiguration:
		return CategoryEmailConfiguration
	default:
		return CategoryUnknown
	}
}

// Label returns a human-readable name for the category
func (c Category) Label() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Classification is the result of classifying a request.
// Confidence is always within [0,1].
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// NewClassification creates a Classification with confidence clamped to [0,1]
func NewClassification(category Category, confidence float64, reasoning string) Classification {
	return Classification{
		Category:   category,
		Confidence: Clamp01(confidence),
		Reasoning:  reasoning,
	}
}

// Clamp01 clamps v to the closed interval [0,1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
