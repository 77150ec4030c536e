// Package index provides the vector search backends for the retriever's
// vector tier: an in-memory cosine index built at startup, or a
// pgvector-backed table when a database is configured.
package index

import (
	"context"
	"math"
	"sort"

	"github.com/deskwise/deskwise/internal/domain"
)

// Match is one nearest-neighbor hit. Score is cosine similarity mapped
// into [0,1].
type Match struct {
	SourceID string
	Content  string
	Score    float64
}

// Index is the capability shared by all vector search backends
type Index interface {
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)
}

// Entry is one indexed document with its embedding
type Entry struct {
	SourceID  string
	Content   string
	Embedding []float32
}

// MemoryIndex holds embeddings in memory. Read-only after Build; safe
// for concurrent Search.
type MemoryIndex struct {
	entries []Entry
}

// NewMemoryIndex creates an index over the given entries, preserving
// their order for tie-breaks
func NewMemoryIndex(entries []Entry) *MemoryIndex {
	return &MemoryIndex{entries: entries}
}

// EmbeddingClient generates one embedding per document at build time
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Embeddable is anything that can be indexed: an id plus the text to embed
type Embeddable struct {
	SourceID string
	Content  string
}

// Build embeds every document and returns a ready in-memory index. Any
// embedding failure aborts the build; the caller decides whether to run
// without a vector tier.
func Build(ctx context.Context, client EmbeddingClient, docs []Embeddable) (*MemoryIndex, error) {
	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		vec, err := client.GenerateEmbedding(ctx, d.Content)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexUnavailable, "index build failed", err)
		}
		entries = append(entries, Entry{SourceID: d.SourceID, Content: d.Content, Embedding: vec})
	}
	return NewMemoryIndex(entries), nil
}

// Search returns the top k entries by cosine similarity, mapped into
// [0,1]. Equal scores preserve insertion order.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if m == nil || len(m.entries) == 0 {
		return nil, domain.ErrIndexUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(m.entries))
	for _, e := range m.entries {
		matches = append(matches, Match{
			SourceID: e.SourceID,
			Content:  e.Content,
			Score:    similarityScore(vector, e.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// similarityScore maps cosine similarity from [-1,1] into [0,1]
func similarityScore(a, b []float32) float64 {
	return domain.Clamp01((cosine(a, b) + 1) / 2)
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
