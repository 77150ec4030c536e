package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/deskwise/deskwise/internal/domain"
	"github.com/deskwise/deskwise/internal/index"
)

func TestRetriever_FirstTierWins(t *testing.T) {
	first := &stubTier{
		method: domain.RetrievalMethodVector,
		snippets: []domain.KnowledgeSnippet{
			domain.NewKnowledgeSnippet("kb#1", "content", 0.9, domain.RetrievalMethodVector),
		},
	}
	second := &stubTier{method: domain.RetrievalMethodKeyword}
	retriever := NewRetriever(first, second)

	snippets, err := retriever.Retrieve(context.Background(), "reset password", 3)

	assert.NoError(t, err)
	assert.Len(t, snippets, 1)
	assert.Equal(t, domain.RetrievalMethodVector, snippets[0].Method)
	assert.Equal(t, 0, second.calls)
}

func TestRetriever_FailedTierFallsThrough(t *testing.T) {
	first := &stubTier{method: domain.RetrievalMethodVector, err: domain.ErrIndexUnavailable}
	second := &stubTier{
		method: domain.RetrievalMethodLLM,
		snippets: []domain.KnowledgeSnippet{
			domain.NewKnowledgeSnippet("kb#2", "content", 1.0, domain.RetrievalMethodLLM),
		},
	}
	third := &stubTier{method: domain.RetrievalMethodKeyword}
	retriever := NewRetriever(first, second, third)

	snippets, err := retriever.Retrieve(context.Background(), "reset password", 3)

	assert.NoError(t, err)
	assert.Len(t, snippets, 1)
	assert.Equal(t, domain.RetrievalMethodLLM, snippets[0].Method)
	assert.Equal(t, 0, third.calls)
}

func TestRetriever_EmptyResultIsSuccess(t *testing.T) {
	first := &stubTier{method: domain.RetrievalMethodVector, snippets: []domain.KnowledgeSnippet{}}
	second := &stubTier{method: domain.RetrievalMethodKeyword}
	retriever := NewRetriever(first, second)

	snippets, err := retriever.Retrieve(context.Background(), "unrelated topic", 3)

	assert.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Equal(t, 0, second.calls)
}

func TestRetriever_AllTiersFail(t *testing.T) {
	retriever := NewRetriever(
		&stubTier{method: domain.RetrievalMethodVector, err: errors.New("embed failed")},
		&stubTier{method: domain.RetrievalMethodLLM, err: errors.New("rate limited")},
		&stubTier{method: domain.RetrievalMethodKeyword, err: errors.New("no documents loaded")},
	)

	snippets, err := retriever.Retrieve(context.Background(), "help", 3)

	assert.Nil(t, snippets)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestRetriever_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retriever := NewRetriever(&stubTier{method: domain.RetrievalMethodVector, err: context.Canceled})

	_, err := retriever.Retrieve(ctx, "help", 3)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrRetrievalUnavailable))
}

func TestVectorTier_Search(t *testing.T) {
	mockEmb := new(MockEmbeddingClient)
	mockIdx := new(MockIndex)
	tier := NewVectorTier(mockEmb, mockIdx)

	ctx := context.Background()
	vec := []float32{0.1, 0.2, 0.3}
	mockEmb.On("GenerateEmbedding", ctx, "vpn not connecting").Return(vec, nil)
	mockIdx.On("Search", ctx, vec, 2).Return([]index.Match{
		{SourceID: "kb#3", Content: "vpn setup", Score: 0.88},
		{SourceID: "kb#4", Content: "network basics", Score: 0.61},
	}, nil)

	snippets, err := tier.Search(ctx, "vpn not connecting", 2)

	assert.NoError(t, err)
	assert.Len(t, snippets, 2)
	assert.Equal(t, "kb#3", snippets[0].SourceID)
	assert.Equal(t, 0.88, snippets[0].RelevanceScore)
	assert.Equal(t, domain.RetrievalMethodVector, snippets[0].Method)
	mockEmb.AssertExpectations(t)
	mockIdx.AssertExpectations(t)
}

func TestVectorTier_EmbeddingFailure(t *testing.T) {
	mockEmb := new(MockEmbeddingClient)
	tier := NewVectorTier(mockEmb, new(MockIndex))

	ctx := context.Background()
	mockEmb.On("GenerateEmbedding", ctx, mock.Anything).Return(nil, domain.ErrEmbeddingFailed)

	_, err := tier.Search(ctx, "anything", 3)

	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
}

func TestVectorTier_NotConfigured(t *testing.T) {
	tier := NewVectorTier(nil, nil)

	_, err := tier.Search(context.Background(), "anything", 3)

	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestLLMTier_Search(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	tier := NewLLMTier(mockLLM, testCorpus())

	ctx := context.Background()
	mockLLM.On("Complete", ctx, mock.Anything).Return("2, 0", nil)

	snippets, err := tier.Search(ctx, "vpn access from home", 3)

	assert.NoError(t, err)
	assert.Len(t, snippets, 2)
	assert.Equal(t, "troubleshooting_database.json#0", snippets[0].SourceID)
	assert.Equal(t, 1.0, snippets[0].RelevanceScore)
	assert.Equal(t, "knowledge_base.md#1", snippets[1].SourceID)
	assert.InDelta(t, 2.0/3.0, snippets[1].RelevanceScore, 1e-9)
	assert.Equal(t, domain.RetrievalMethodLLM, snippets[0].Method)
}

func TestLLMTier_NoneResponse(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	tier := NewLLMTier(mockLLM, testCorpus())

	ctx := context.Background()
	mockLLM.On("Complete", ctx, mock.Anything).Return("none", nil)

	snippets, err := tier.Search(ctx, "completely unrelated", 3)

	assert.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestLLMTier_ProviderFailure(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	tier := NewLLMTier(mockLLM, testCorpus())

	ctx := context.Background()
	mockLLM.On("Complete", ctx, mock.Anything).Return("", domain.ErrProvider)

	_, err := tier.Search(ctx, "anything", 3)

	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestParseRankedIndices(t *testing.T) {
	tests := []struct {
		name     string
		out      string
		docCount int
		k        int
		want     []int
	}{
		{"plain list", "2, 0, 1", 5, 3, []int{2, 0, 1}},
		{"prose around numbers", "The most relevant are [3] and [1].", 5, 3, []int{3, 1}},
		{"out of range dropped", "7, 1, 9", 5, 3, []int{1}},
		{"duplicates dropped", "2, 2, 0", 5, 3, []int{2, 0}},
		{"capped at k", "0, 1, 2, 3", 5, 2, []int{0, 1}},
		{"none", "None of these are relevant.", 5, 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRankedIndices(tt.out, tt.docCount, tt.k))
		})
	}
}

func TestKeywordTier_Search(t *testing.T) {
	tier := NewKeywordTier(testCorpus())

	snippets, err := tier.Search(context.Background(), "how do I reset my password", 3)

	assert.NoError(t, err)
	assert.NotEmpty(t, snippets)
	assert.Equal(t, "knowledge_base.md#1", snippets[0].SourceID)
	assert.Equal(t, domain.RetrievalMethodKeyword, snippets[0].Method)
	for _, s := range snippets {
		assert.GreaterOrEqual(t, s.RelevanceScore, 0.0)
		assert.LessOrEqual(t, s.RelevanceScore, 1.0)
	}
}

func TestKeywordTier_TopKLimit(t *testing.T) {
	tier := NewKeywordTier(testCorpus())

	snippets, err := tier.Search(context.Background(), "the company network and email and password portal", 1)

	assert.NoError(t, err)
	assert.Len(t, snippets, 1)
}

func TestKeywordTier_NoCorpus(t *testing.T) {
	tier := NewKeywordTier(nil)

	_, err := tier.Search(context.Background(), "help", 3)

	assert.Error(t, err)
}

func TestKeywordTier_NoQueryTokens(t *testing.T) {
	tier := NewKeywordTier(testCorpus())

	snippets, err := tier.Search(context.Background(), "!!! ???", 3)

	assert.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestOverlapScore_Bounds(t *testing.T) {
	queries := []string{
		"password",
		"password reset portal",
		"password password password",
		"completely unrelated words here",
	}
	doc := tokenize("To reset your password, visit the self-service portal and follow the prompts.")

	for i, q := range queries {
		t.Run(fmt.Sprintf("query_%d", i), func(t *testing.T) {
			score := overlapScore(tokenize(q), doc)

			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}
