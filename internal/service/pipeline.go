package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deskwise/deskwise/internal/domain"
	"github.com/deskwise/deskwise/internal/format"
	"github.com/deskwise/deskwise/internal/telemetry"
)

// Pipeline sequences the processing stages for one request:
// normalize -> classify -> retrieve -> {generate, decide} -> assemble.
// Requests are independent; the pipeline holds no per-request state
// and is safe for concurrent use.
type Pipeline struct {
	classifier   *Classifier
	retriever    *Retriever
	escalation   *EscalationEngine
	generator    *Generator
	stageTimeout time.Duration
	topK         int
}

func NewPipeline(
	classifier *Classifier,
	retriever *Retriever,
	escalation *EscalationEngine,
	generator *Generator,
	stageTimeout time.Duration,
	topK int,
) *Pipeline {
	return &Pipeline{
		classifier:   classifier,
		retriever:    retriever,
		escalation:   escalation,
		generator:    generator,
		stageTimeout: stageTimeout,
		topK:         topK,
	}
}

// Process runs the full pipeline and assembles the result exactly
// once. Every stage failure is absorbed by that stage's fallback
// except invalid input and request cancellation; a returned result
// always has all fields populated.
func (p *Pipeline) Process(ctx context.Context, req *domain.Request) (*domain.ProcessingResult, error) {
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "pipeline.process", telemetry.SpanAttributes{
		RequestID: req.ID,
	})
	defer span.End()

	text := format.Normalize(req.Text)
	if text == "" {
		return nil, domain.ErrEmptyRequest
	}

	classification, err := p.classify(ctx, text)
	if err != nil {
		return nil, err
	}

	snippets, err := p.retrieve(ctx, text)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		// Total retrieval failure: continue with an empty snippet set
		// so the "no relevant knowledge found" rule can fire
		snippets = nil
	}

	// Response generation and the escalation decision depend only on
	// classification and retrieval, not on each other. Both must
	// complete before the result is assembled.
	var response string
	var verdict domain.EscalationVerdict

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var genErr error
		response, genErr = p.generate(gctx, text, classification, snippets)
		return genErr
	})
	g.Go(func() error {
		verdict = p.escalation.Decide(classification, req.Priority, len(snippets))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.ProcessingResult{
		RequestID:      req.ID,
		Classification: classification,
		Snippets:       snippets,
		Response:       response,
		Escalation:     verdict,
		ProcessingTime: time.Since(start),
	}, nil
}

func (p *Pipeline) classify(ctx context.Context, text string) (domain.Classification, error) {
	stageCtx, cancel := p.stageContext(ctx)
	defer cancel()
	return p.classifier.Classify(stageCtx, text)
}

func (p *Pipeline) retrieve(ctx context.Context, text string) ([]domain.KnowledgeSnippet, error) {
	stageCtx, cancel := p.stageContext(ctx)
	defer cancel()
	return p.retriever.Retrieve(stageCtx, text, p.topK)
}

func (p *Pipeline) generate(ctx context.Context, text string, classification domain.Classification, snippets []domain.KnowledgeSnippet) (string, error) {
	stageCtx, cancel := p.stageContext(ctx)
	defer cancel()
	return p.generator.Generate(stageCtx, text, classification, snippets)
}

// stageContext bounds one stage by the configured timeout. A stage
// deadline is that stage's failure mode; request-level cancellation
// still propagates through the parent.
func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.stageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.stageTimeout)
}
