package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/deskwise/deskwise/internal/corpus"
	"github.com/deskwise/deskwise/internal/index"
)

// EmbeddingClient generates one embedding per corpus document
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SnippetStore receives the embedded corpus, replacing any previous
// contents in one transaction
type SnippetStore interface {
	ReplaceAll(ctx context.Context, entries []index.Entry) error
}

// IndexPopulator embeds the corpus and loads it into the snippet
// store. It runs under a Worker so a provider outage at startup delays
// the vector tier instead of failing the whole service; once the store
// is populated every further tick is a no-op.
type IndexPopulator struct {
	embeddings EmbeddingClient
	store      SnippetStore
	kb         *corpus.Corpus
	done       bool
}

func NewIndexPopulator(embeddings EmbeddingClient, store SnippetStore, kb *corpus.Corpus) *IndexPopulator {
	return &IndexPopulator{
		embeddings: embeddings,
		store:      store,
		kb:         kb,
	}
}

// ProcessJobs performs one population attempt. Returns nil once the
// store holds the full corpus.
func (p *IndexPopulator) ProcessJobs(ctx context.Context) error {
	if p.done {
		return nil
	}

	docs := p.kb.Documents()
	entries := make([]index.Entry, 0, len(docs))
	for _, d := range docs {
		vec, err := p.embeddings.GenerateEmbedding(ctx, d.Content)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", d.ID, err)
		}
		entries = append(entries, index.Entry{SourceID: d.ID, Content: d.Content, Embedding: vec})
	}

	if err := p.store.ReplaceAll(ctx, entries); err != nil {
		return fmt.Errorf("replacing index contents: %w", err)
	}

	p.done = true
	log.Printf("snippet index populated (%d documents)", len(entries))
	return nil
}

// Done reports whether the store has been populated
func (p *IndexPopulator) Done() bool {
	return p.done
}
