package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/spf13/cobra"
)

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	var (
		kind  string
		async bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload templates or source files",
		Long: `Uploads text files (.txt, .md, .csv, .json) to the current scope.

Source files are indexed for search right away, or queued with --async.
Templates are stored as-is and used to structure generated documents.`,
		Args: cobra.MinimumNArgs(1),
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
			return runUpload(cmd.Context(), api, scopeID, args, kind, async, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "source", "File kind: source or template")
	cmd.Flags().BoolVar(&async, "async", false, "Queue indexing instead of waiting for it")

	return cmd
}

func runUpload(ctx context.Context, api *APIClient, scopeID string, files []string, kind string, async, outputJSON bool) error {
	results := make([]handlers.UploadResponse, 0, len(files))

	for _, file := range files {
		opts := UploadOptions{Kind: kind, Async: async}
		if !outputJSON {
			opts.OnProgress = func(current, total int64) {
				fmt.Fprintf(os.Stderr, "\r%s: %d%%", file, current*100/max(total, 1))
			}
		}

		resp, err := api.UploadFile(ctx, scopeID, file, opts)
		if !outputJSON {
			fmt.Fprintln(os.Stderr)
		}
		if err != nil {
			return fmt.Errorf("upload of %s failed: %w", file, err)
		}

		var uploaded handlers.UploadResponse
		if err := json.Unmarshal(resp.Data, &uploaded); err != nil {
			return fmt.Errorf("failed to parse upload response: %w", err)
		}
		results = append(results, uploaded)

		if !outputJSON {
			switch uploaded.Status {
			case handlers.UploadStatusIndexed:
				fmt.Printf("Indexed %s (%d chunks), id %s\n", file, uploaded.ChunkCount, uploaded.Source.ID)
			case handlers.UploadStatusQueued:
				fmt.Printf("Queued %s, id %s (job %s)\n", file, uploaded.Source.ID, uploaded.JobID)
			default:
				fmt.Printf("Stored %s %s, id %s\n", uploaded.Source.Kind, file, uploaded.Source.ID)
			}
		}
	}

	if outputJSON {
		return printJSON(results)
	}
	return nil
}

// SourcesCmd creates the sources command.
func SourcesCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "sources [source-id]",
		Short: "List uploaded files, or show one",
		Args:  cobra.MaximumNArgs(1),
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
			if len(args) == 1 {
				return runGetSource(cmd.Context(), api, scopeID, args[0], outputJSON)
			}
			return runListSources(cmd.Context(), api, scopeID, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of files")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

// SourcePage is one page of the sources listing.
type SourcePage struct {
	Items   []handlers.SourceResponse `json:"items"`
	Cursor  string                    `json:"cursor,omitempty"`
	HasMore bool                      `json:"has_more"`
}

func runListSources(ctx context.Context, api *APIClient, scopeID string, limit int, cursor string, outputJSON bool) error {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	resp, err := api.Get(ctx, "/scopes/"+url.PathEscape(scopeID)+"/sources?"+query.Encode())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	var page SourcePage
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		return fmt.Errorf("failed to parse sources: %w", err)
	}

	if outputJSON {
		return printJSON(page)
	}

	if len(page.Items) == 0 {
		fmt.Println("No files uploaded.")
		return nil
	}
	for _, s := range page.Items {
		fmt.Printf("%-36s  %-8s  %6d chunks  %s\n", s.ID, s.Kind, s.ChunkCount, s.FileName)
	}
	if page.HasMore && page.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More files available. Use --cursor %s\n", page.Cursor)
	}
	return nil
}

func runGetSource(ctx context.Context, api *APIClient, scopeID, sourceID string, outputJSON bool) error {
	resp, err := api.Get(ctx, "/scopes/"+url.PathEscape(scopeID)+"/sources/"+url.PathEscape(sourceID))
	if err != nil {
		return fmt.Errorf("failed to get source: %w", err)
	}

	var source handlers.SourceResponse
	if err := json.Unmarshal(resp.Data, &source); err != nil {
		return fmt.Errorf("failed to parse source: %w", err)
	}

	if outputJSON {
		return printJSON(source)
	}

	fmt.Printf("ID: %s\n", source.ID)
	fmt.Printf("File: %s (%s, %d bytes)\n", source.FileName, source.ContentType, source.Size)
	fmt.Printf("Kind: %s\n", source.Kind)
	fmt.Printf("Chunks: %d\n", source.ChunkCount)
	fmt.Printf("Created: %s\n", source.CreatedAt)
	if source.DownloadURL != "" {
		fmt.Printf("Download: %s\n", source.DownloadURL)
	}
	return nil
}
