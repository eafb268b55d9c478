package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/spf13/cobra"
)

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <source-id> [file]",
		Short: "Index raw text under a source id",
		Long: `Indexes text read from a file, or from stdin when no file (or "-") is given.

Ingesting the same source id again adds a second set of chunks; delete the
source first to replace it.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			scopeID, err := resolveScope(cmd)
			if err != nil {
				return err
			}

			path := "-"
			if len(args) == 2 {
				path = args[1]
			}
			text, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), api, scopeID, args[0], text, outputJSON)
		},
	}

	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func runIngest(ctx context.Context, api *APIClient, scopeID, sourceID, text string, outputJSON bool) error {
	resp, err := api.Post(ctx, "/scopes/"+url.PathEscape(scopeID)+"/ingest", handlers.IngestRequest{
		SourceID: sourceID,
		Text:     text,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	var result handlers.IngestResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse ingest response: %w", err)
	}

	if outputJSON {
		return printJSON(result)
	}
	fmt.Printf("Indexed %d chunks for %s\n", result.ChunkCount, result.SourceID)
	return nil
}
