package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/cloo-solutions/docpilot/internal/artifact"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/spf13/cobra"
)

// GenerateCmd creates the generate command.
func GenerateCmd() *cobra.Command {
	var (
		description string
		kind        string
		savePath    string
		noTemplate  bool
		noSources   bool
	)

	cmd := &cobra.Command{
		Use:   "generate <title>",
		Short: "Write a document from the template and sources",
		Long: `Streams a new document to stdout as it is written.

Ctrl-C stops the stream and keeps what was received so far.`,
		Args: cobra.ExactArgs(1),
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

			req := handlers.SynthesisRequest{
				Title:        args[0],
				Description:  description,
				Kind:         kind,
				Requirements: requirements(noTemplate, noSources),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runGenerate(ctx, api, scopeID, req, savePath, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What the document should cover")
	cmd.Flags().StringVar(&kind, "kind", string(domain.ArtifactKindText), "Artifact kind")
	cmd.Flags().StringVarP(&savePath, "save", "o", "", "Also write the finished content to this file")
	cmd.Flags().BoolVar(&noTemplate, "no-template", false, "Do not require a template")
	cmd.Flags().BoolVar(&noSources, "no-sources", false, "Do not require source files")

	return cmd
}

func runGenerate(ctx context.Context, api *APIClient, scopeID string, req handlers.SynthesisRequest, savePath string, outputJSON bool) error {
	m := artifact.New()

	err := api.Stream(ctx, "/scopes/"+url.PathEscape(scopeID)+"/synthesis", req, func(w domain.WireDelta) error {
		if !m.ApplyWire(w) || outputJSON {
			return nil
		}
		if w.Type == domain.DeltaTypeText {
			fmt.Print(w.Content)
		}
		return nil
	})

	var blocked *BlockedError
	switch {
	case errors.As(err, &blocked):
		if outputJSON {
			return printJSON(blocked.Decision)
		}
		printDecision(&blocked.Decision)
		return blocked
	case ctx.Err() != nil:
		m.Abort()
		fmt.Fprintln(os.Stderr, "\nstopped")
	case err != nil:
		return fmt.Errorf("generation failed: %w", err)
	}

	result := m.Snapshot()
	if !outputJSON {
		fmt.Println()
	}

	if savePath != "" && result.Content != "" {
		if err := os.WriteFile(savePath, []byte(result.Content), 0644); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		if !outputJSON {
			fmt.Fprintf(os.Stderr, "Saved to %s\n", savePath)
		}
	}

	if outputJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else if result.DocumentID != "" && result.Error == "" && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Document %s\n", result.DocumentID)
	}

	if result.Error != "" {
		return fmt.Errorf("generation failed: %s", result.Error)
	}
	return nil
}
