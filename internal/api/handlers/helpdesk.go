package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/deskwise/deskwise/internal/api"
	"github.com/deskwise/deskwise/internal/domain"
)

// ProcessService runs the full request pipeline
type ProcessService interface {
	Process(ctx context.Context, req *domain.Request) (*domain.ProcessingResult, error)
}

// ClassifyService classifies request text without running the rest of
// the pipeline
type ClassifyService interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// StatusInfo is the static service state reported by /status, captured
// once at startup
type StatusInfo struct {
	IndexBackend      string
	LLMEnabled        bool
	EmbeddingsEnabled bool
	DocumentCount     int
	DocumentsByKind   map[string]int
	Sources           []string
}

type HelpdeskHandler struct {
	pipeline   ProcessService
	classifier ClassifyService
	status     StatusInfo
	started    time.Time
}

func NewHelpdeskHandler(pipeline ProcessService, classifier ClassifyService, status StatusInfo) *HelpdeskHandler {
	return &HelpdeskHandler{
		pipeline:   pipeline,
		classifier: classifier,
		status:     status,
		started:    time.Now(),
	}
}

type SubmitRequest struct {
	RequestText string `json:"request_text"`
	UserID      string `json:"user_id"`
	Priority    string `json:"priority"`
}

type ClassifyRequest struct {
	RequestText string `json:"request_text"`
}

type ProcessingResultResponse struct {
	RequestID          string                    `json:"request_id"`
	Classification     domain.Classification     `json:"classification"`
	RetrievedKnowledge []domain.KnowledgeSnippet `json:"retrieved_knowledge"`
	Response           string                    `json:"response"`
	Escalation         domain.EscalationVerdict  `json:"escalation"`
	ProcessingTime     float64                   `json:"processing_time"`
}

func resultToResponse(result *domain.ProcessingResult) *ProcessingResultResponse {
	snippets := result.Snippets
	if snippets == nil {
		snippets = []domain.KnowledgeSnippet{}
	}
	return &ProcessingResultResponse{
		RequestID:          result.RequestID,
		Classification:     result.Classification,
		RetrievedKnowledge: snippets,
		Response:           result.Response,
		Escalation:         result.Escalation,
		ProcessingTime:     result.ProcessingTime.Seconds(),
	}
}

// Submit runs one request through the full pipeline
func (h *HelpdeskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		api.HandleError(w, domain.ErrMissingUser)
		return
	}

	request := domain.NewRequest(
		uuid.NewString(),
		req.RequestText,
		req.UserID,
		domain.ParsePriority(req.Priority),
		time.Now().UTC(),
	)

	result, err := h.pipeline.Process(r.Context(), request)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, resultToResponse(result))
}

// Classify runs only the classification stage
func (h *HelpdeskHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	classification, err := h.classifier.Classify(r.Context(), req.RequestText)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, classification)
}

// Status reports service health details beyond the bare /health check
func (h *HelpdeskHandler) Status(w http.ResponseWriter, r *http.Request) {
	byKind := h.status.DocumentsByKind
	if byKind == nil {
		byKind = map[string]int{}
	}
	sources := h.status.Sources
	if sources == nil {
		sources = []string{}
	}

	api.Success(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"index_backend":  h.status.IndexBackend,
		"llm_enabled":    h.status.LLMEnabled,
		"embeddings_enabled": h.status.EmbeddingsEnabled,
		"documents": map[string]interface{}{
			"total":   h.status.DocumentCount,
			"by_kind": byKind,
			"sources": sources,
		},
	})
}
