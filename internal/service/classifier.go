package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/deskwise/deskwise/internal/corpus"
	"github.com/deskwise/deskwise/internal/domain"
	"github.com/deskwise/deskwise/internal/format"
	"github.com/deskwise/deskwise/internal/openai"
)

const classifySystemPrompt = `You classify IT help desk requests. Respond with a single JSON object ` +
	`of the shape {"category": "...", "confidence": 0.0, "reasoning": "..."} and nothing else. ` +
	`The category MUST be one of the listed values. Confidence is a number between 0.0 and 1.0.`

// keywordRules is the deterministic fallback table, evaluated in order.
// Matching is case-insensitive substring containment.
var keywordRules = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryPasswordReset, []string{"password", "login", "forgot", "reset", "locked", "account"}},
	{domain.CategorySoftwareInstallation, []string{"install", "software", "program", "application", "update", "upgrade"}},
	{domain.CategoryHardwareFailure, []string{"laptop", "computer", "keyboard", "mouse", "screen", "monitor", "hardware"}},
	{domain.CategoryNetworkConnectivity, []string{"internet", "wifi", "network", "connection", "vpn", "ethernet"}},
	{domain.CategoryEmailConfiguration, []string{"email", "outlook", "mail", "smtp", "imap"}},
}

// Classifier maps request text onto the closed category set. LLM
// failures degrade to the keyword table; classification always returns
// a value for non-empty input.
type Classifier struct {
	llm                CompletionClient
	kb                 *corpus.Corpus
	fallbackConfidence float64
}

func NewClassifier(llm CompletionClient, kb *corpus.Corpus, fallbackConfidence float64) *Classifier {
	return &Classifier{
		llm:                llm,
		kb:                 kb,
		fallbackConfidence: domain.Clamp01(fallbackConfidence),
	}
}

// Classify returns a classification for the given request text. The
// only errors returned are domain.ErrEmptyRequest for blank input and
// context cancellation; provider failures fall back to keywords.
func (c *Classifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	text = format.Normalize(text)
	if text == "" {
		return domain.Classification{}, domain.ErrEmptyRequest
	}

	if c.llm == nil {
		return c.keywordClassify(text), nil
	}

	out, err := c.llm.Complete(ctx, openai.CompletionRequest{
		System:    classifySystemPrompt,
		Prompt:    c.buildPrompt(text),
		MaxTokens: 200,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return domain.Classification{}, ctx.Err()
		}
		return c.keywordClassify(text), nil
	}

	classification, err := parseClassification(out)
	if err != nil {
		return c.keywordClassify(text), nil
	}
	return classification, nil
}

func (c *Classifier) buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Classify this help desk request into one of the following categories:\n\n")
	for _, cat := range domain.Categories() {
		desc := cat.Label()
		if c.kb != nil {
			if info, ok := c.kb.CategoryInfo(cat); ok && info.Description != "" {
				desc = info.Description
			}
		}
		fmt.Fprintf(&b, "- %s: %s\n", cat, desc)
	}
	fmt.Fprintf(&b, "\nRequest: %q\n", text)
	return b.String()
}

type classificationPayload struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// parseClassification extracts the JSON object from an LLM response,
// tolerating code fences and surrounding prose
func parseClassification(out string) (domain.Classification, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return domain.Classification{}, fmt.Errorf("no JSON object in response")
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(out[start:end+1]), &payload); err != nil {
		return domain.Classification{}, err
	}

	category := domain.ParseCategory(payload.Category)
	if category == domain.CategoryUnknown && domain.Category(strings.ToLower(strings.TrimSpace(payload.Category))) != domain.CategoryUnknown {
		return domain.Classification{}, fmt.Errorf("category %q not in closed set", payload.Category)
	}

	return domain.NewClassification(category, payload.Confidence, strings.TrimSpace(payload.Reasoning)), nil
}

// keywordClassify applies the fallback rule table: most trigger hits
// wins, ties resolved by table order
func (c *Classifier) keywordClassify(text string) domain.Classification {
	lower := strings.ToLower(text)

	best := domain.CategoryUnknown
	bestScore := 0
	var bestMatched []string

	for _, rule := range keywordRules {
		var matched []string
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > bestScore {
			best = rule.category
			bestScore = len(matched)
			bestMatched = matched
		}
	}

	if best == domain.CategoryUnknown {
		return domain.NewClassification(domain.CategoryUnknown, 0, "keyword fallback: no keywords matched")
	}

	reasoning := fmt.Sprintf("keyword fallback: matched %s", strings.Join(bestMatched, ", "))
	return domain.NewClassification(best, c.fallbackConfidence, reasoning)
}
