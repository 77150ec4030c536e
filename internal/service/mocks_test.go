package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/deskwise/deskwise/internal/corpus"
	"github.com/deskwise/deskwise/internal/domain"
	"github.com/deskwise/deskwise/internal/index"
	"github.com/deskwise/deskwise/internal/openai"
)

// MockCompletionClient is a mock for the LLM chat completion client
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, req openai.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockEmbeddingClient is a mock for the embedding client
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockIndex is a mock vector index
type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Search(ctx context.Context, vector []float32, k int) ([]index.Match, error) {
	args := m.Called(ctx, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]index.Match), args.Error(1)
}

// stubTier is a canned search tier for retriever chain tests
type stubTier struct {
	method   domain.RetrievalMethod
	snippets []domain.KnowledgeSnippet
	err      error
	calls    int
}

func (s *stubTier) Method() domain.RetrievalMethod {
	return s.method
}

func (s *stubTier) Search(ctx context.Context, query string, k int) ([]domain.KnowledgeSnippet, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.snippets, nil
}

func testCorpus() *corpus.Corpus {
	return corpus.New([]corpus.Document{
		{
			ID:      "knowledge_base.md#1",
			Source:  "knowledge_base.md",
			Section: "Password Reset",
			Content: "## Password Reset\nTo reset your password, visit the self-service portal and follow the prompts.",
			Kind:    corpus.KindMarkdown,
		},
		{
			ID:      "knowledge_base.md#2",
			Source:  "knowledge_base.md",
			Section: "Email Configuration",
			Content: "## Email Configuration\nConfigure Outlook with the IMAP server mail.company.com on port 993.",
			Kind:    corpus.KindMarkdown,
		},
		{
			ID:      "troubleshooting_database.json#0",
			Source:  "troubleshooting_database.json",
			Section: "vpn.overview",
			Content: "overview: The VPN client connects to the corporate network over an encrypted tunnel.",
			Kind:    corpus.KindJSON,
		},
	})
}
