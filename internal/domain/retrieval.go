package domain

// RetrievalMethod records which retrieval tier produced a snippet
type RetrievalMethod string

const (
	RetrievalMethodVector  RetrievalMethod = "vector"
	RetrievalMethodLLM     RetrievalMethod = "llm"
	RetrievalMethodKeyword RetrievalMethod = "keyword"
)

// KnowledgeSnippet is a unit of retrieved knowledge-base content.
// RelevanceScore is always within [0,1].
type KnowledgeSnippet struct {
	SourceID       string          `json:"source_id"`
	Content        string          `json:"content"`
	RelevanceScore float64         `json:"relevance_score"`
	Method         RetrievalMethod `json:"method"`
}

// NewKnowledgeSnippet creates a snippet with the relevance score clamped to [0,1]
func NewKnowledgeSnippet(sourceID, content string, score float64, method RetrievalMethod) KnowledgeSnippet {
	return KnowledgeSnippet{
		SourceID:       sourceID,
		Content:        content,
		RelevanceScore: Clamp01(score),
		Method:         method,
	}
}
