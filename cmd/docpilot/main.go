package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/docpilot/internal/cli"
	"github.com/cloo-solutions/docpilot/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "docpilot",
		Short: "Docpilot CLI - write documents from your templates and sources",
		Long: `Docpilot CLI uploads templates and source files to a scope, searches them,
and streams generated documents.

Environment variables:
  DOCPILOT_API_TOKEN   API token, if the server requires one
  DOCPILOT_API_URL     API base URL (default: http://localhost:8080)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("scope", "", "Scope id (overrides .docpilot/config.yaml)")
	rootCmd.PersistentFlags().String("api-token", "", "API token (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AuthCmd())
	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.SourcesCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.GateCmd())
	rootCmd.AddCommand(client.GenerateCmd())
	rootCmd.AddCommand(client.DocumentCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
