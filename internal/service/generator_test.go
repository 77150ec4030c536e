package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/deskwise/deskwise/internal/domain"
	"github.com/deskwise/deskwise/internal/openai"
)

func passwordSnippets() []domain.KnowledgeSnippet {
	return []domain.KnowledgeSnippet{
		domain.NewKnowledgeSnippet("kb#1", "Visit the self-service portal to reset your password.", 0.9, domain.RetrievalMethodVector),
		domain.NewKnowledgeSnippet("kb#2", "Passwords expire every 90 days.", 0.7, domain.RetrievalMethodVector),
	}
}

func TestGenerator_Generate_Success(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	gen := NewGenerator(mockLLM, 6000)

	ctx := context.Background()
	classification := domain.NewClassification(domain.CategoryPasswordReset, 0.9, "")
	mockLLM.On("Complete", ctx, mock.MatchedBy(func(req openai.CompletionRequest) bool {
		return strings.Contains(req.Prompt, "USER REQUEST: I forgot my password") &&
			strings.Contains(req.Prompt, "CLASSIFIED CATEGORY: password_reset") &&
			strings.Contains(req.Prompt, "Visit the self-service portal")
	})).Return("1. Open the portal.\n2. Click reset.", nil)

	out, err := gen.Generate(ctx, "I forgot my password", classification, passwordSnippets())

	assert.NoError(t, err)
	assert.Equal(t, "1. Open the portal.\n2. Click reset.", out)
	mockLLM.AssertExpectations(t)
}

func TestGenerator_Generate_NormalizesOutput(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	gen := NewGenerator(mockLLM, 6000)

	ctx := context.Background()
	mockLLM.On("Complete", ctx, mock.Anything).
		Return(`**Step one:**\nOpen the portal.`, nil)

	out, err := gen.Generate(ctx, "reset password", domain.NewClassification(domain.CategoryPasswordReset, 0.9, ""), nil)

	assert.NoError(t, err)
	assert.Equal(t, "Step one:\nOpen the portal.", out)
}

func TestGenerator_Generate_ProviderErrorFallsBack(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	gen := NewGenerator(mockLLM, 6000)

	ctx := context.Background()
	mockLLM.On("Complete", ctx, mock.Anything).Return("", domain.ErrProvider)

	out, err := gen.Generate(ctx, "reset password", domain.NewClassification(domain.CategoryPasswordReset, 0.9, ""), passwordSnippets())

	assert.NoError(t, err)
	assert.Contains(t, out, "password reset issue")
	assert.Contains(t, out, "escalated to our technical team")
	assert.Contains(t, out, "support@company.com")
}

func TestGenerator_Generate_EmptyOutputFallsBack(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	gen := NewGenerator(mockLLM, 6000)

	ctx := context.Background()
	mockLLM.On("Complete", ctx, mock.Anything).Return("   \n  ", nil)

	out, err := gen.Generate(ctx, "wifi down", domain.NewClassification(domain.CategoryNetworkConnectivity, 0.8, ""), nil)

	assert.NoError(t, err)
	assert.Contains(t, out, "network connectivity issue")
}

func TestGenerator_Generate_NoLLMUsesFallback(t *testing.T) {
	gen := NewGenerator(nil, 6000)

	out, err := gen.Generate(context.Background(), "anything", domain.NewClassification(domain.CategoryUnknown, 0, ""), nil)

	assert.NoError(t, err)
	assert.Contains(t, out, "your support issue")
}

func TestGenerator_Generate_CancellationPropagates(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	gen := NewGenerator(mockLLM, 6000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mockLLM.On("Complete", ctx, mock.Anything).Return("", context.Canceled)

	out, err := gen.Generate(ctx, "anything", domain.NewClassification(domain.CategoryPasswordReset, 0.9, ""), nil)

	assert.Empty(t, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerator_BuildPrompt_BudgetDropsLowRelevanceSnippets(t *testing.T) {
	gen := NewGenerator(nil, 700)

	snippets := []domain.KnowledgeSnippet{
		domain.NewKnowledgeSnippet("kb#1", strings.Repeat("a", 400), 0.9, domain.RetrievalMethodVector),
		domain.NewKnowledgeSnippet("kb#2", strings.Repeat("b", 400), 0.5, domain.RetrievalMethodVector),
	}

	prompt := gen.buildPrompt("short request", domain.NewClassification(domain.CategoryPasswordReset, 0.9, ""), snippets)

	assert.Contains(t, prompt, "kb#1")
	assert.NotContains(t, prompt, "kb#2")
}

func TestGenerator_BuildPrompt_TinyBudgetClipsTopSnippet(t *testing.T) {
	gen := NewGenerator(nil, 200)

	snippets := []domain.KnowledgeSnippet{
		domain.NewKnowledgeSnippet("kb#1", strings.Repeat("a", 500), 0.9, domain.RetrievalMethodVector),
	}

	prompt := gen.buildPrompt("short request", domain.NewClassification(domain.CategoryPasswordReset, 0.9, ""), snippets)

	assert.Contains(t, prompt, "kb#1")
	assert.NotContains(t, prompt, strings.Repeat("a", 500))
}

func TestGenerator_BuildPrompt_LongRequestLeavesNoSnippetRoom(t *testing.T) {
	gen := NewGenerator(nil, 200)

	request := strings.Repeat("r", 500)
	snippets := []domain.KnowledgeSnippet{
		domain.NewKnowledgeSnippet("kb#1", strings.Repeat("a", 3000), 0.9, domain.RetrievalMethodVector),
		domain.NewKnowledgeSnippet("kb#2", strings.Repeat("b", 3000), 0.5, domain.RetrievalMethodVector),
	}

	prompt := gen.buildPrompt(request, domain.NewClassification(domain.CategoryPasswordReset, 0.9, ""), snippets)

	// The request alone exceeds the budget, so no snippet content may
	// slip in untruncated
	assert.NotContains(t, prompt, strings.Repeat("a", 10))
	assert.NotContains(t, prompt, strings.Repeat("b", 10))
	assert.Contains(t, prompt, "No specific knowledge found")
	assert.Less(t, len(prompt), 1000)
}

func TestGenerator_BuildPrompt_NoSnippets(t *testing.T) {
	gen := NewGenerator(nil, 6000)

	prompt := gen.buildPrompt("help", domain.NewClassification(domain.CategoryUnknown, 0, ""), nil)

	assert.Contains(t, prompt, "No specific knowledge found")
}
