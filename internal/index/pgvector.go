package index

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/deskwise/deskwise/internal/domain"
)

// PGVectorIndex persists corpus embeddings in a pgvector table so the
// index survives restarts and can be shared by replicas. Schema lives
// in migrations/.
type PGVectorIndex struct {
	pool *pgxpool.Pool
}

func NewPGVectorIndex(pool *pgxpool.Pool) *PGVectorIndex {
	return &PGVectorIndex{pool: pool}
}

// ReplaceAll rebuilds the snippet_index table from the given entries,
// keeping their order in the position column for tie-breaks
func (s *PGVectorIndex) ReplaceAll(ctx context.Context, entries []Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM snippet_index`); err != nil {
		return err
	}

	for i, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO snippet_index (source_id, content, embedding, position)
			 VALUES ($1, $2, $3, $4)`,
			e.SourceID,
			e.Content,
			pgvector.NewVector(e.Embedding),
			i,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Search returns the top k rows by cosine distance. Scores are cosine
// similarity mapped into [0,1]; equal distances order by position.
func (s *PGVectorIndex) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, domain.ErrIndexUnavailable
	}

	rows, err := s.pool.Query(ctx,
		`SELECT source_id, content, embedding <=> $1 AS distance
		 FROM snippet_index
		 ORDER BY distance, position
		 LIMIT $2`,
		pgvector.NewVector(vector),
		k,
	)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexUnavailable, "pgvector search failed", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var distance float64
		if err := rows.Scan(&m.SourceID, &m.Content, &distance); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexUnavailable, "pgvector scan failed", err)
		}
		// cosine distance is in [0,2]; (2-d)/2 maps similarity into [0,1]
		m.Score = domain.Clamp01((2 - distance) / 2)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexUnavailable, "pgvector search failed", err)
	}

	if len(matches) == 0 {
		// Distinguish "nothing indexed" from "no close neighbors":
		// an empty table means the index was never built
		var count int
		if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM snippet_index`).Scan(&count); err == nil && count == 0 {
			return nil, domain.ErrIndexUnavailable
		}
	}

	return matches, nil
}
