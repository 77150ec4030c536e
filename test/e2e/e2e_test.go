//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitResult struct {
	RequestID      string `json:"request_id"`
	Classification struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	} `json:"classification"`
	RetrievedKnowledge []struct {
		SourceID       string  `json:"source_id"`
		Content        string  `json:"content"`
		RelevanceScore float64 `json:"relevance_score"`
		Method         string  `json:"method"`
	} `json:"retrieved_knowledge"`
	Response   string `json:"response"`
	Escalation struct {
		ShouldEscalate bool   `json:"should_escalate"`
		Reason         string `json:"reason"`
		UrgencyLevel   string `json:"urgency_level"`
	} `json:"escalation"`
	ProcessingTime float64 `json:"processing_time"`
}

func TestE2E_Health(t *testing.T) {
	env := SetupTestEnv(t)

	status, resp := env.Get("/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), "ok")
}

func TestE2E_SubmitPasswordReset(t *testing.T) {
	env := SetupTestEnv(t)

	status, resp := env.Post("/submit", map[string]string{
		"request_text": "I forgot my password and my account is locked",
		"user_id":      "user-1",
		"priority":     "medium",
	})
	require.Equal(t, http.StatusOK, status)

	var result submitResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))

	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, "password_reset", result.Classification.Category)
	assert.Equal(t, 0.93, result.Classification.Confidence)

	require.NotEmpty(t, result.RetrievedKnowledge)
	assert.LessOrEqual(t, len(result.RetrievedKnowledge), 3)
	for _, s := range result.RetrievedKnowledge {
		assert.Equal(t, "vector", s.Method)
		assert.GreaterOrEqual(t, s.RelevanceScore, 0.0)
		assert.LessOrEqual(t, s.RelevanceScore, 1.0)
	}

	assert.NotEmpty(t, result.Response)
	assert.False(t, result.Escalation.ShouldEscalate)
	assert.Equal(t, "medium", result.Escalation.UrgencyLevel)
	assert.Greater(t, result.ProcessingTime, 0.0)
}

func TestE2E_SubmitCriticalPriority(t *testing.T) {
	env := SetupTestEnv(t)

	status, resp := env.Post("/submit", map[string]string{
		"request_text": "vpn is down for the whole office",
		"user_id":      "user-2",
		"priority":     "critical",
	})
	require.Equal(t, http.StatusOK, status)

	var result submitResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))

	assert.True(t, result.Escalation.ShouldEscalate)
	assert.Equal(t, "critical priority declared by requester", result.Escalation.Reason)
	assert.Equal(t, "critical", result.Escalation.UrgencyLevel)
	// Escalation does not suppress the response
	assert.NotEmpty(t, result.Response)
}

func TestE2E_SubmitUnclassifiable(t *testing.T) {
	env := SetupTestEnv(t)

	status, resp := env.Post("/submit", map[string]string{
		"request_text": "the kitchen coffee grinder sounds strange",
		"user_id":      "user-3",
	})
	require.Equal(t, http.StatusOK, status)

	var result submitResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))

	assert.Equal(t, "unknown", result.Classification.Category)
	assert.True(t, result.Escalation.ShouldEscalate)
	assert.Equal(t, "unclassifiable request", result.Escalation.Reason)
	assert.Equal(t, "high", result.Escalation.UrgencyLevel)
}

func TestE2E_SubmitEmptyText(t *testing.T) {
	env := SetupTestEnv(t)

	status, resp := env.Post("/submit", map[string]string{
		"request_text": "   ",
		"user_id":      "user-4",
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Error, "empty")
}

func TestE2E_SubmitMissingUser(t *testing.T) {
	env := SetupTestEnv(t)

	status, resp := env.Post("/submit", map[string]string{
		"request_text": "help me",
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Error, "user id")
}

func TestE2E_ProviderOutageFallsBackToKeywords(t *testing.T) {
	env := SetupTestEnv(t)

	env.OpenAI.FailChat.Store(true)

	status, resp := env.Post("/submit", map[string]string{
		"request_text": "I need to reset my password",
		"user_id":      "user-5",
	})
	require.Equal(t, http.StatusOK, status)

	var result submitResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))

	// Keyword fallback classification at the configured confidence
	assert.Equal(t, "password_reset", result.Classification.Category)
	assert.Equal(t, 0.5, result.Classification.Confidence)
	assert.Contains(t, result.Classification.Reasoning, "keyword fallback")

	// Retrieval still succeeds via the vector tier (embeddings are up)
	require.NotEmpty(t, result.RetrievedKnowledge)
	assert.Equal(t, "vector", result.RetrievedKnowledge[0].Method)

	// Template response instead of a generated one
	assert.Contains(t, result.Response, "password reset issue")

	// 0.5 confidence is below the 0.6 threshold
	assert.True(t, result.Escalation.ShouldEscalate)
	assert.Equal(t, "low classification confidence", result.Escalation.Reason)
}

func TestE2E_Classify(t *testing.T) {
	env := SetupTestEnv(t)

	status, resp := env.Post("/classify", map[string]string{
		"request_text": "outlook will not sync my email",
	})
	require.Equal(t, http.StatusOK, status)

	var classification struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &classification))
	assert.Equal(t, "email_configuration", classification.Category)
	assert.Equal(t, 0.87, classification.Confidence)
}

func TestE2E_Status(t *testing.T) {
	env := SetupTestEnv(t)

	status, resp := env.Get("/status")
	require.Equal(t, http.StatusOK, status)

	var info struct {
		Status       string `json:"status"`
		IndexBackend string `json:"index_backend"`
		LLMEnabled   bool   `json:"llm_enabled"`
		Documents    struct {
			Total int `json:"total"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &info))
	assert.Equal(t, "ok", info.Status)
	assert.Equal(t, "memory", info.IndexBackend)
	assert.True(t, info.LLMEnabled)
	assert.Greater(t, info.Documents.Total, 0)
}
