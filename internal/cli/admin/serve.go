package admin

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

	"github.com/praxislabs/praxis/internal/api/handlers"
	"github.com/praxislabs/praxis/internal/config"
	"github.com/praxislabs/praxis/internal/database"
	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/jobs"
	"github.com/praxislabs/praxis/internal/openai"
	"github.com/praxislabs/praxis/internal/repository"
	"github.com/praxislabs/praxis/internal/server"
	"github.com/praxislabs/praxis/internal/service"
	"github.com/praxislabs/praxis/internal/storage"
	"github.com/praxislabs/praxis/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the praxis API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the background index worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
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

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	courseRepo := repository.NewCourseRepository(pool)
	embeddingRepo := repository.NewEmbeddingRepository(pool)
	collectionRepo := repository.NewCollectionRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	resourceRepo := repository.NewResourceRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	creditRepo := repository.NewCreditRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	agentConfigRepo := repository.NewAgentConfigRepository(pool)
	interactionRepo := repository.NewInteractionRepository(pool)
	indexJobRepo := repository.NewIndexJobRepository(pool)
	orgRepo := repository.NewOrgRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(orgRepo, apiKeyRepo, uuidGen)

	if cfg.InitOrgName != "" {
		if err := bootstrapInitialOrg(ctx, cfg, orgRepo, authSvc); err != nil {
			return fmt.Errorf("failed to bootstrap initial org: %w", err)
		}
	}

	var transcripts service.TranscriptStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		transcripts = s3Client
	}

	var embeddingClient service.EmbeddingClient = &unconfiguredEmbeddingClient{}
	var completionClient service.CompletionClient = &unconfiguredCompletionClient{}
	if cfg.HasOpenAI() {
		embeddingClient = openai.NewClient(cfg.OpenAIAPIKey)
		completionClient = openai.NewCompletionClient(cfg.OpenAIAPIKey)
	}

	indexerSvc := service.NewIndexerService(courseRepo, embeddingRepo, embeddingClient, transcripts)

	evaluator := service.NewRuleEvaluator(profileRepo)
	teamSvc := service.NewTeamService(profileRepo, groupRepo, evaluator, progressRepo, conversationRepo, creditRepo)

	scopeResolver := service.NewScopeResolver(courseRepo, collectionRepo, profileRepo, teamSvc, embeddingRepo, embeddingClient, transcripts)

	agentSvc := service.NewAgentService(agentConfigRepo, scopeResolver, completionClient, profileRepo, interactionRepo, conversationRepo)

	assignmentSvc := service.NewAssignmentService(assignmentRepo, profileRepo, groupRepo, courseRepo, resourceRepo)
	courseSvc := service.NewCourseService(courseRepo, indexJobRepo)
	conversationSvc := service.NewConversationService(conversationRepo, profileRepo)

	var indexWorker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker && cfg.HasOpenAI() {
		processor := jobs.NewIndexWorker(indexJobRepo, indexerSvc)
		indexWorker = jobs.NewWorker(processor, time.Duration(cfg.IndexWorkerInterval)*time.Second)
		go indexWorker.Start(ctx)
		log.Println("index worker started")
	}

	router := server.NewRouter(server.RouterConfig{
		AuthValidator:       authSvc,
		AgentHandler:        handlers.NewAgentHandler(agentSvc),
		AssignmentHandler:   handlers.NewAssignmentHandler(assignmentSvc),
		TeamHandler:         handlers.NewTeamHandler(teamSvc),
		CourseHandler:       handlers.NewCourseHandler(courseSvc, indexerSvc),
		ConversationHandler: handlers.NewConversationHandler(conversationSvc),
		AuthHandler:         handlers.NewAuthHandler(authSvc),
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

type unconfiguredEmbeddingClient struct{}

func (c *unconfiguredEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embedding client not configured: OPENAI_API_KEY required")
}

type unconfiguredCompletionClient struct{}

func (c *unconfiguredCompletionClient) Complete(ctx context.Context, model string, messages []openai.ChatMessage) (string, error) {
	return "", fmt.Errorf("completion client not configured: OPENAI_API_KEY required")
}

func bootstrapInitialOrg(ctx context.Context, cfg *config.Config, orgRepo *repository.OrgRepository, authSvc *service.AuthService) error {
	org, err := orgRepo.GetByName(ctx, cfg.InitOrgName)
	if err != nil && err != domain.ErrOrganizationNotFound {
		return fmt.Errorf("failed to check existing org: %w", err)
	}

	if org == nil {
		org, err = authSvc.CreateOrg(ctx, cfg.InitOrgName)
		if err != nil {
			return fmt.Errorf("failed to create org: %w", err)
		}
		log.Printf("bootstrap: created organization '%s' (id: %s)", org.Name, org.ID)
	} else {
		log.Printf("bootstrap: organization '%s' already exists (id: %s)", org.Name, org.ID)
	}

	if cfg.InitAPIKey != "" {
		if !service.IsValidAPIToken(cfg.InitAPIKey) {
			return fmt.Errorf("invalid INIT_API_KEY format (expected 'prx_<64 hex chars>')")
		}

		if _, err := authSvc.ValidateAPIKey(ctx, cfg.InitAPIKey); err == nil {
			log.Printf("bootstrap: API key already exists")
			return nil
		}

		if err := authSvc.CreateAPIKeyWithToken(ctx, org.ID, "bootstrap", cfg.InitAPIKey); err != nil {
			return fmt.Errorf("failed to create API key: %w", err)
		}
		log.Printf("bootstrap: created API key")
	}

	return nil
}

func runMigrations(databaseURL string) error {
	// golang-migrate wants a database/sql handle, not a pgx pool
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
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		log.Println("migrations: no change")
	} else {
		log.Println("migrations: applied")
	}

	return nil
}
