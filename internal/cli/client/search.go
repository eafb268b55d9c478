package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/spf13/cobra"
)

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		k             int
		minSimilarity float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed source chunks",
		Long:  "Returns the chunks of the current scope most similar to the query.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			scopeID, err := resolveScope(cmd)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			req := handlers.SearchRequest{Query: args[0], K: k}
			if cmd.Flags().Changed("min-similarity") {
				req.MinSimilarity = &minSimilarity
			}
			return runSearch(cmd.Context(), api, scopeID, req, outputJSON)
		},
	}

	cmd.Flags().IntVar(&k, "k", 0, "Maximum number of results (server default when 0)")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "Only return chunks scoring above this value")

	return cmd
}

func runSearch(ctx context.Context, api *APIClient, scopeID string, req handlers.SearchRequest, outputJSON bool) error {
	resp, err := api.Post(ctx, "/scopes/"+url.PathEscape(scopeID)+"/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp handlers.SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		return printJSON(searchResp)
	}

	if len(searchResp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(searchResp.Results))
	for i, result := range searchResp.Results {
		fmt.Printf("%d. %s (%.2f)\n", i+1, result.SourceID, result.Similarity)
		content := strings.Join(strings.Fields(result.Content), " ")
		if len(content) > 200 {
			content = content[:197] + "..."
		}
		fmt.Printf("   %s\n", content)
		if i < len(searchResp.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}
	return nil
}
