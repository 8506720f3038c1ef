package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxislabs/praxis/internal/config"
	"github.com/praxislabs/praxis/internal/openai"
	"github.com/praxislabs/praxis/internal/repository"
	"github.com/praxislabs/praxis/internal/service"
	"github.com/praxislabs/praxis/internal/storage"
)

func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the retrieval index",
		Long:  "Rebuild course embeddings outside the request path",
	}

	cmd.AddCommand(IndexRegenerateCmd())

	return cmd
}

func IndexRegenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Regenerate embeddings for an organization",
		Long:  "Delete and rebuild index records for every published course in an organization",
		RunE:  runIndexRegenerate,
	}

	cmd.Flags().StringP("org", "o", "", "Organization ID or name (required)")
	cmd.Flags().StringP("output", "", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("org")

	return cmd
}

func runIndexRegenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	orgRef, _ := cmd.Flags().GetString("org")
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required to regenerate embeddings")
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	orgRepo := repository.NewOrgRepository(pool)
	orgID, err := resolveOrgID(ctx, orgRepo, orgRef)
	if err != nil {
		return err
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
		transcripts = s3Client
	}

	courseRepo := repository.NewCourseRepository(pool)
	embeddingRepo := repository.NewEmbeddingRepository(pool)
	indexer := service.NewIndexerService(courseRepo, embeddingRepo, openai.NewClient(cfg.OpenAIAPIKey), transcripts)

	result, err := indexer.RegenerateAll(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to regenerate index: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"org_id":          orgID,
			"course_count":    result.CourseCount,
			"embedding_count": result.EmbeddingCount,
			"errors":          result.Errors,
			"success":         result.Success(),
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Regenerated index for organization %s\n", orgID)
	fmt.Printf("Courses: %d\n", result.CourseCount)
	fmt.Printf("Embeddings: %d\n", result.EmbeddingCount)
	if len(result.Errors) > 0 {
		fmt.Printf("Errors (%d):\n", len(result.Errors))
		for _, msg := range result.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}

	return nil
}
