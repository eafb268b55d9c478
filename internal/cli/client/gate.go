package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/spf13/cobra"
)

// GateCmd creates the gate command.
func GateCmd() *cobra.Command {
	var noTemplate, noSources bool

	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Check whether the scope is ready for generation",
		Long:  "Reports which uploads are still missing before a document can be generated.",
		Args:  cobra.NoArgs,
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
			return runGate(cmd.Context(), api, scopeID, requirements(noTemplate, noSources), outputJSON)
		},
	}

	cmd.Flags().BoolVar(&noTemplate, "no-template", false, "Do not require a template")
	cmd.Flags().BoolVar(&noSources, "no-sources", false, "Do not require source files")

	return cmd
}

func requirements(noTemplate, noSources bool) handlers.Requirements {
	requireTemplate, requireSources := !noTemplate, !noSources
	return handlers.Requirements{
		RequireTemplate: &requireTemplate,
		RequireSources:  &requireSources,
	}
}

func runGate(ctx context.Context, api *APIClient, scopeID string, req handlers.Requirements, outputJSON bool) error {
	resp, err := api.Post(ctx, "/scopes/"+url.PathEscape(scopeID)+"/workflow", req)
	if err != nil {
		return fmt.Errorf("workflow check failed: %w", err)
	}

	var decision domain.WorkflowDecision
	if err := json.Unmarshal(resp.Data, &decision); err != nil {
		return fmt.Errorf("failed to parse decision: %w", err)
	}

	if outputJSON {
		return printJSON(decision)
	}
	printDecision(&decision)
	return nil
}

func printDecision(d *domain.WorkflowDecision) {
	if d.Ready {
		fmt.Println("Ready to generate.")
		return
	}
	fmt.Println("Not ready to generate.")
	for _, m := range d.Missing {
		fmt.Printf("  missing: %s\n", m)
	}
	if d.Guidance != "" {
		fmt.Printf("\n%s\n", d.Guidance)
	}
}
