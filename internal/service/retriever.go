package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/deskwise/deskwise/internal/corpus"
	"github.com/deskwise/deskwise/internal/domain"
	"github.com/deskwise/deskwise/internal/index"
	"github.com/deskwise/deskwise/internal/openai"
)

// SearchTier is one strategy in the retriever's ordered fallback chain
type SearchTier interface {
	Method() domain.RetrievalMethod
	Search(ctx context.Context, query string, k int) ([]domain.KnowledgeSnippet, error)
}

// Retriever tries each tier strictly in order and uses the first one
// that completes without an error. Tiers are never blended and never
// run in parallel.
type Retriever struct {
	tiers []SearchTier
}

func NewRetriever(tiers ...SearchTier) *Retriever {
	return &Retriever{tiers: tiers}
}

// Retrieve returns ranked snippets for the query. An empty result from
// a tier that completed is a success. Only total failure of every tier
// surfaces, as domain.ErrRetrievalUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.KnowledgeSnippet, error) {
	var lastErr error
	for _, tier := range r.tiers {
		snippets, err := tier.Search(ctx, query, k)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		return snippets, nil
	}
	return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrievalUnavailable, "all retrieval tiers failed", lastErr)
}

// VectorTier embeds the query and searches the prebuilt vector index
type VectorTier struct {
	embeddings EmbeddingClient
	idx        index.Index
}

func NewVectorTier(embeddings EmbeddingClient, idx index.Index) *VectorTier {
	return &VectorTier{embeddings: embeddings, idx: idx}
}

func (t *VectorTier) Method() domain.RetrievalMethod {
	return domain.RetrievalMethodVector
}

func (t *VectorTier) Search(ctx context.Context, query string, k int) ([]domain.KnowledgeSnippet, error) {
	if t.embeddings == nil || t.idx == nil {
		return nil, domain.ErrIndexUnavailable
	}

	vec, err := t.embeddings.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := t.idx.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	snippets := make([]domain.KnowledgeSnippet, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, domain.NewKnowledgeSnippet(m.SourceID, m.Content, m.Score, domain.RetrievalMethodVector))
	}
	return snippets, nil
}

const (
	llmTierMaxCandidates = 20
	llmTierSummaryChars  = 200
)

var numberRe = regexp.MustCompile(`\d+`)

// LLMTier asks the model to rank corpus documents by relevance when
// the vector index is unavailable
type LLMTier struct {
	llm CompletionClient
	kb  *corpus.Corpus
}

func NewLLMTier(llm CompletionClient, kb *corpus.Corpus) *LLMTier {
	return &LLMTier{llm: llm, kb: kb}
}

func (t *LLMTier) Method() domain.RetrievalMethod {
	return domain.RetrievalMethodLLM
}

func (t *LLMTier) Search(ctx context.Context, query string, k int) ([]domain.KnowledgeSnippet, error) {
	if t.llm == nil {
		return nil, errors.New("llm client not configured")
	}
	docs := t.candidates()
	if len(docs) == 0 {
		return []domain.KnowledgeSnippet{}, nil
	}

	out, err := t.llm.Complete(ctx, openai.CompletionRequest{
		Prompt:    buildRankPrompt(query, docs, k),
		MaxTokens: 50,
	})
	if err != nil {
		return nil, err
	}

	indices := parseRankedIndices(out, len(docs), k)

	snippets := make([]domain.KnowledgeSnippet, 0, len(indices))
	for rank, idx := range indices {
		doc := docs[idx]
		// Ordinal rank mapped linearly into [0,1], top rank at 1.0
		score := 1 - float64(rank)/float64(k)
		snippets = append(snippets, domain.NewKnowledgeSnippet(doc.ID, doc.Content, score, domain.RetrievalMethodLLM))
	}
	return snippets, nil
}

func (t *LLMTier) candidates() []corpus.Document {
	if t.kb == nil {
		return nil
	}
	docs := t.kb.Documents()
	if len(docs) > llmTierMaxCandidates {
		docs = docs[:llmTierMaxCandidates]
	}
	return docs
}

func buildRankPrompt(query string, docs []corpus.Document, k int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given this user query: %q\n\n", query)
	fmt.Fprintf(&b, "Find the most relevant knowledge chunks from the following list. "+
		"Return ONLY the numbers (e.g. \"3, 7, 12\") of the %d most relevant chunks, "+
		"ranked by relevance. If none are relevant, return \"none\".\n\nKnowledge chunks:\n", k)
	for i, doc := range docs {
		summary := doc.Content
		if len(summary) > llmTierSummaryChars {
			summary = summary[:llmTierSummaryChars] + "..."
		}
		fmt.Fprintf(&b, "[%d] %s (%s): %s\n", i, doc.Section, doc.Source, summary)
	}
	fmt.Fprintf(&b, "\nMost relevant chunk numbers (top %d):", k)
	return b.String()
}

func parseRankedIndices(out string, docCount, k int) []int {
	if strings.Contains(strings.ToLower(out), "none") {
		return nil
	}

	seen := make(map[int]struct{})
	var indices []int
	for _, raw := range numberRe.FindAllString(out, -1) {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n >= docCount {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		indices = append(indices, n)
		if len(indices) == k {
			break
		}
	}
	return indices
}

// KeywordTier scores token overlap between the query and each
// document, normalized by both lengths so scores stay within [0,1].
// It is the tier of last resort and fails only without a corpus.
type KeywordTier struct {
	kb *corpus.Corpus
}

func NewKeywordTier(kb *corpus.Corpus) *KeywordTier {
	return &KeywordTier{kb: kb}
}

func (t *KeywordTier) Method() domain.RetrievalMethod {
	return domain.RetrievalMethodKeyword
}

func (t *KeywordTier) Search(ctx context.Context, query string, k int) ([]domain.KnowledgeSnippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.kb == nil || t.kb.Len() == 0 {
		return nil, errors.New("no documents loaded")
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return []domain.KnowledgeSnippet{}, nil
	}

	type scored struct {
		doc   corpus.Document
		score float64
	}

	var hits []scored
	for _, doc := range t.kb.Documents() {
		docTokens := tokenize(doc.Content)
		score := overlapScore(queryTokens, docTokens)
		if score > 0 {
			hits = append(hits, scored{doc: doc, score: score})
		}
	}

	// Stable sort keeps corpus insertion order on equal scores
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	snippets := make([]domain.KnowledgeSnippet, 0, len(hits))
	for _, h := range hits {
		snippets = append(snippets, domain.NewKnowledgeSnippet(h.doc.ID, h.doc.Content, h.score, domain.RetrievalMethodKeyword))
	}
	return snippets, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// overlapScore counts distinct query tokens present in the document,
// normalized by the geometric mean of both lengths. Bounded by 1 since
// the overlap can exceed neither length.
func overlapScore(queryTokens, docTokens []string) float64 {
	if len(queryTokens) == 0 || len(docTokens) == 0 {
		return 0
	}

	docSet := make(map[string]struct{}, len(docTokens))
	for _, tok := range docTokens {
		docSet[tok] = struct{}{}
	}

	seen := make(map[string]struct{}, len(queryTokens))
	overlap := 0
	for _, tok := range queryTokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := docSet[tok]; ok {
			overlap++
		}
	}

	score := float64(overlap) / math.Sqrt(float64(len(seen))*float64(len(docTokens)))
	return domain.Clamp01(score)
}
