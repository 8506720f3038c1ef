package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praxislabs/praxis/internal/cli"
	"github.com/praxislabs/praxis/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "praxisd",
		Short: "Praxis daemon and CLI",
		Long:  "Praxis daemon for running the API server and managing organizations, API keys, and the retrieval index",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.OrgCmd())
	rootCmd.AddCommand(admin.APIKeyCmd())
	rootCmd.AddCommand(admin.IndexCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
