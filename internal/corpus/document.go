package corpus

// Kind identifies the source format a document was extracted from
type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindJSON     Kind = "json"
)

// Document is one retrievable unit of knowledge-base content. The
// corpus is loaded once at startup and read-only afterwards; slice
// order is the insertion order used for retrieval tie-breaks.
type Document struct {
	ID      string
	Source  string
	Section string
	Content string
	Kind    Kind
}

// CategoryInfo carries category metadata from categories.json, used to
// build the classification prompt
type CategoryInfo struct {
	Description           string   `json:"description"`
	TypicalResolutionTime string   `json:"typical_resolution_time"`
	EscalationTriggers    []string `json:"escalation_triggers"`
}
