package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/deskwise/deskwise/internal/api/handlers"
	"github.com/deskwise/deskwise/internal/config"
	"github.com/deskwise/deskwise/internal/corpus"
	"github.com/deskwise/deskwise/internal/database"
	"github.com/deskwise/deskwise/internal/index"
	"github.com/deskwise/deskwise/internal/jobs"
	"github.com/deskwise/deskwise/internal/openai"
	"github.com/deskwise/deskwise/internal/server"
	"github.com/deskwise/deskwise/internal/service"
	"github.com/deskwise/deskwise/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the deskwise API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	kb, err := corpus.Load(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to load knowledge corpus: %w", err)
	}

	var llm *openai.Client
	if cfg.HasOpenAI() {
		llm = openai.NewClientWithConfig(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.LLMModel,
			EmbeddingModel: cfg.EmbedModel,
		})
		log.Printf("llm provider configured (model: %s)", cfg.LLMModel)
	} else {
		log.Println("no OPENAI_API_KEY set, running with keyword fallbacks only")
	}

	idx, backend, indexWorker, err := buildIndex(ctx, cfg, llm, kb, cmd)
	if err != nil {
		return err
	}
	if indexWorker != nil {
		go indexWorker.Start(ctx)
	}

	var completion service.CompletionClient
	var embeddings service.EmbeddingClient
	if llm != nil {
		completion = llm
		embeddings = llm
	}

	var tiers []service.SearchTier
	if idx != nil && embeddings != nil {
		tiers = append(tiers, service.NewVectorTier(embeddings, idx))
	}
	if completion != nil {
		tiers = append(tiers, service.NewLLMTier(completion, kb))
	}
	tiers = append(tiers, service.NewKeywordTier(kb))

	classifier := service.NewClassifier(completion, kb, cfg.FallbackConfidence)
	pipeline := service.NewPipeline(
		classifier,
		service.NewRetriever(tiers...),
		service.NewEscalationEngine(cfg.ConfidenceThreshold),
		service.NewGenerator(completion, cfg.MaxPromptChars),
		cfg.StageTimeout,
		cfg.TopK,
	)

	byKind := make(map[string]int)
	for kind, count := range kb.CountByKind() {
		byKind[string(kind)] = count
	}

	helpdeskHandler := handlers.NewHelpdeskHandler(pipeline, classifier, handlers.StatusInfo{
		IndexBackend:      backend,
		LLMEnabled:        completion != nil,
		EmbeddingsEnabled: embeddings != nil,
		DocumentCount:     kb.Len(),
		DocumentsByKind:   byKind,
		Sources:           kb.Sources(),
	})

	router := server.NewRouter(server.RouterConfig{
		HelpdeskHandler: helpdeskHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if indexWorker != nil {
		indexWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// buildIndex prepares the vector search backend: pgvector when a
// database is configured, otherwise an in-memory index. A failed build
// is not fatal; the retriever falls through to its other tiers. The
// returned worker, when non-nil, retries pgvector population in the
// background until it succeeds.
func buildIndex(ctx context.Context, cfg *config.Config, llm *openai.Client, kb *corpus.Corpus, cmd *cobra.Command) (index.Index, string, *jobs.Worker, error) {
	if !cfg.HasDatabase() {
		if llm == nil {
			return nil, "none", nil, nil
		}

		idx, err := index.Build(ctx, llm, embeddables(kb))
		if err != nil {
			log.Printf("in-memory index build failed, continuing without vector tier: %v", err)
			return nil, "none", nil, nil
		}
		log.Printf("in-memory vector index built (%d documents)", kb.Len())
		return idx, "memory", nil, nil
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return nil, "", nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	idx := index.NewPGVectorIndex(pool)

	var worker *jobs.Worker
	if llm != nil {
		populator := jobs.NewIndexPopulator(llm, idx, kb)
		if err := populator.ProcessJobs(ctx); err != nil {
			// Existing index contents keep serving; the worker retries
			// until the provider and database are both reachable
			log.Printf("index population failed, retrying in background: %v", err)
			worker = jobs.NewWorker(populator, 30*time.Second)
		}
	}

	return idx, "pgvector", worker, nil
}

func embeddables(kb *corpus.Corpus) []index.Embeddable {
	docs := kb.Documents()
	out := make([]index.Embeddable, 0, len(docs))
	for _, d := range docs {
		out = append(out, index.Embeddable{SourceID: d.ID, Content: d.Content})
	}
	return out
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: at version %d", version)
	}

	return nil
}
