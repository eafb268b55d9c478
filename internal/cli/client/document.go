package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/spf13/cobra"
)

// DocumentCmd creates the document command.
func DocumentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "document <id>",
		Short: "Print a generated document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runDocument(cmd.Context(), api, args[0], outputJSON)
		},
	}
}

func runDocument(ctx context.Context, api *APIClient, id string, outputJSON bool) error {
	resp, err := api.Get(ctx, "/documents/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	var doc handlers.DocumentResponse
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	if outputJSON {
		return printJSON(doc)
	}
	fmt.Printf("# %s\n\n%s\n", doc.Title, doc.Content)
	return nil
}
