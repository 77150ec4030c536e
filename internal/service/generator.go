package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deskwise/deskwise/internal/domain"
	"github.com/deskwise/deskwise/internal/format"
	"github.com/deskwise/deskwise/internal/openai"
)

const generateSystemPrompt = `You are an AI assistant for an IT help desk. Provide helpful, accurate ` +
	`and professional responses to support requests.

FORMATTING RULES:
- Write in plain text, NOT markdown
- Use real line breaks for paragraphs, never literal \n sequences
- Use numbered lists (1., 2., 3.) for steps
- Never use **bold**, ## headers, or backticks
- Keep responses concise and readable

Use the provided knowledge when relevant, give step-by-step instructions where appropriate, ` +
	`and recommend contacting IT support directly when unsure.`

// Generator synthesizes the final answer from the request, its
// classification and the retrieved knowledge. It never returns an
// empty response: provider failures produce a deterministic template.
type Generator struct {
	llm            CompletionClient
	maxPromptChars int
}

func NewGenerator(llm CompletionClient, maxPromptChars int) *Generator {
	return &Generator{llm: llm, maxPromptChars: maxPromptChars}
}

// Generate returns the normalized response text. The only error it
// returns is request cancellation; everything else falls back to the
// template response.
func (g *Generator) Generate(ctx context.Context, text string, classification domain.Classification, snippets []domain.KnowledgeSnippet) (string, error) {
	if g.llm == nil {
		return g.fallbackResponse(classification), nil
	}

	out, err := g.llm.Complete(ctx, openai.CompletionRequest{
		System:      generateSystemPrompt,
		Prompt:      g.buildPrompt(text, classification, snippets),
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", ctx.Err()
		}
		return g.fallbackResponse(classification), nil
	}

	response := format.Normalize(out)
	if response == "" {
		return g.fallbackResponse(classification), nil
	}
	return response, nil
}

// buildPrompt assembles the user prompt, truncating snippet content to
// the configured character budget. Snippets arrive ordered by
// relevance, so trailing (lowest-relevance) ones are dropped first.
func (g *Generator) buildPrompt(text string, classification domain.Classification, snippets []domain.KnowledgeSnippet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please help with this IT support request:\n\n")
	fmt.Fprintf(&b, "USER REQUEST: %s\n\n", text)
	fmt.Fprintf(&b, "CLASSIFIED CATEGORY: %s\n\n", classification.Category)
	b.WriteString("RELEVANT KNOWLEDGE:\n")
	b.WriteString(g.buildContext(snippets, g.maxPromptChars-b.Len()))
	b.WriteString("\n\nProvide a response that addresses the request, uses the relevant knowledge, " +
		"and maintains a professional tone.")
	return b.String()
}

func (g *Generator) buildContext(snippets []domain.KnowledgeSnippet, budget int) string {
	if len(snippets) == 0 {
		return "No specific knowledge found for this request."
	}
	// A long request can exhaust the whole budget before any snippet is
	// added; a non-positive remainder means no room for knowledge at all
	if budget <= 0 {
		return "No specific knowledge found for this request."
	}

	var parts []string
	used := 0
	for i, s := range snippets {
		part := fmt.Sprintf("Knowledge %d (from %s):\n%s", i+1, s.SourceID, s.Content)
		if used+len(part) > budget {
			break
		}
		parts = append(parts, part)
		used += len(part)
	}

	if len(parts) == 0 {
		// Budget too small for even the top snippet; include a clipped version
		top := snippets[0]
		clipped := top.Content
		if len(clipped) > budget {
			clipped = clipped[:budget]
		}
		return fmt.Sprintf("Knowledge 1 (from %s):\n%s", top.SourceID, clipped)
	}

	return strings.Join(parts, "\n\n")
}

// fallbackResponse is the deterministic template used when the LLM is
// unavailable. It names the category and tells the user the request
// has been escalated.
func (g *Generator) fallbackResponse(classification domain.Classification) string {
	category := "support"
	if classification.Category != domain.CategoryUnknown {
		category = classification.Category.Label()
	}

	return fmt.Sprintf("Thank you for contacting IT support regarding your %s issue.\n\n"+
		"I'm unable to generate a detailed response right now, so your request has been "+
		"escalated to our technical team. You can expect a reply within 2-4 hours.\n\n"+
		"For immediate assistance, contact IT support at extension 1234 or support@company.com.",
		strings.ToLower(category))
}
