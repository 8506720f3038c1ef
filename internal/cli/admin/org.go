package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/praxislabs/praxis/internal/config"
	"github.com/praxislabs/praxis/internal/database"
	"github.com/praxislabs/praxis/internal/repository"
	"github.com/praxislabs/praxis/internal/service"
)

func OrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Manage organizations",
		Long:  "Create and list organizations",
	}

	cmd.AddCommand(OrgCreateCmd())
	cmd.AddCommand(OrgListCmd())

	return cmd
}

func OrgCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new organization",
		Long:  "Create a new organization with the specified name",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrgCreate,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runOrgCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	orgRepo := repository.NewOrgRepository(pool)
	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(orgRepo, nil, uuidGen)

	org, err := authSvc.CreateOrg(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":         org.ID,
			"name":       org.Name,
			"created_at": org.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Organization created: %s (%s)\n", org.Name, org.ID)
	}

	return nil
}

func OrgListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all organizations",
		Long:  "List all organizations in the system",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runOrgList(outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runOrgList(outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	orgRepo := repository.NewOrgRepository(pool)
	orgs, err := orgRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	if outputFormat == "json" {
		data := make([]map[string]interface{}, len(orgs))
		for i, org := range orgs {
			data[i] = map[string]interface{}{
				"id":         org.ID,
				"name":       org.Name,
				"created_at": org.CreatedAt,
			}
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(orgs) == 0 {
			fmt.Println("No organizations found")
			return nil
		}
		fmt.Println("Organizations:")
		for _, org := range orgs {
			fmt.Printf("  %s: %s (created: %s)\n", org.ID, org.Name, org.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.Connect(ctx, cfg.DatabaseURL)
}
