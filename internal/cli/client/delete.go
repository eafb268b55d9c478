package client

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// DeleteCmd creates the delete command.
func DeleteCmd() *cobra.Command {
	var (
		all   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "delete [source-id]...",
		Short: "Delete source files, or the whole scope",
		Long:  "Deletes the given sources with their chunks. With --all, deletes every file of the scope.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if all == (len(args) > 0) {
				return fmt.Errorf("pass source ids or --all")
			}

			scopeID, err := resolveScope(cmd)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if all {
				if !force && !confirm(fmt.Sprintf("Delete every file of scope '%s'?", scopeID)) {
					fmt.Println("Aborted.")
					return nil
				}
				return runDeleteScope(cmd.Context(), api, scopeID, outputJSON)
			}
			return runDeleteSources(cmd.Context(), api, scopeID, args, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete the whole scope")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}

func runDeleteSources(ctx context.Context, api *APIClient, scopeID string, sourceIDs []string, outputJSON bool) error {
	for _, id := range sourceIDs {
		if _, err := api.Delete(ctx, "/scopes/"+url.PathEscape(scopeID)+"/sources/"+url.PathEscape(id)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", id, err)
		}
		if !outputJSON {
			fmt.Printf("Deleted %s\n", id)
		}
	}
	if outputJSON {
		return printJSON(map[string]any{"deleted": sourceIDs})
	}
	return nil
}

func runDeleteScope(ctx context.Context, api *APIClient, scopeID string, outputJSON bool) error {
	if _, err := api.Delete(ctx, "/scopes/"+url.PathEscape(scopeID)); err != nil {
		return fmt.Errorf("failed to delete scope: %w", err)
	}
	if outputJSON {
		return printJSON(map[string]any{"deleted_scope": scopeID})
	}
	fmt.Printf("Deleted scope %s\n", scopeID)
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
