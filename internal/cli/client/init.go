package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	docpilotDir = ".docpilot"
	configFile  = "config.yaml"
	envFile     = ".env"
)

var invalidScopeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Config is the per-directory configuration written by init.
type Config struct {
	ScopeID string `json:"scope_id" yaml:"scope_id"`
}

func InitCmd() *cobra.Command {
	var apiToken string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a docpilot workspace",
		Long:  "Creates .docpilot/config.yaml binding this directory to a scope (--scope, or derived from the directory name), and .env with the API settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			scopeID, _ := cmd.Flags().GetString("scope")
			return runInit(cmd.Context(), scopeID, apiToken, apiURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&apiToken, "token", "", "API token, if the server requires one")
	cmd.Flags().StringVar(&apiURL, "url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

func runInit(ctx context.Context, scopeID, apiToken, apiURL string, outputJSON bool) error {
	if _, err := os.Stat(docpilotDir); err == nil {
		return fmt.Errorf("%s directory already exists", docpilotDir)
	}

	if apiToken == "" {
		apiToken = os.Getenv(envAPIToken)
	}
	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	if scopeID == "" {
		cwd, _ := os.Getwd()
		scopeID = ScopeFromName(filepath.Base(cwd))
	}
	if scopeID == "" {
		return fmt.Errorf("could not derive a scope id, pass --scope")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	api := NewAPIClientWithConfig(apiToken, apiURL)
	if _, err := api.Get(ctx, "/health"); err != nil {
		return fmt.Errorf("server not reachable at %s: %w", apiURL, err)
	}

	envData := fmt.Sprintf("%s=%s\n%s=%s\n", envAPIToken, apiToken, envAPIURL, apiURL)
	if err := os.WriteFile(envFile, []byte(envData), 0600); err != nil {
		return fmt.Errorf("failed to create .env: %w", err)
	}

	if err := os.MkdirAll(docpilotDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", docpilotDir, err)
	}

	configData, err := yaml.Marshal(Config{ScopeID: scopeID})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	configPath := filepath.Join(docpilotDir, configFile)
	if err := os.WriteFile(configPath, configData, 0644); err != nil {
		return fmt.Errorf("failed to create config.yaml: %w", err)
	}

	if outputJSON {
		return printJSON(map[string]any{
			"success":  true,
			"scope_id": scopeID,
			"config":   configPath,
			"env":      envFile,
		})
	}

	fmt.Printf("Initialized docpilot workspace for scope '%s'\n", scopeID)
	fmt.Printf("Config saved to %s\n", configPath)
	return nil
}

// ScopeFromName turns a directory name into a URL-safe scope id.
func ScopeFromName(name string) string {
	return strings.Trim(invalidScopeChars.ReplaceAllString(strings.ToLower(name), "-"), "-.")
}

// LoadConfig reads the config from .docpilot/config.yaml.
func LoadConfig() (*Config, error) {
	configPath := filepath.Join(docpilotDir, configFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not a docpilot workspace (run 'docpilot init' or pass --scope)")
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	if config.ScopeID == "" {
		return nil, fmt.Errorf("invalid config: scope_id not found")
	}

	return &config, nil
}

// resolveScope returns the --scope flag, falling back to the workspace config.
func resolveScope(cmd *cobra.Command) (string, error) {
	if scope, err := cmd.Flags().GetString("scope"); err == nil && scope != "" {
		return scope, nil
	}
	config, err := LoadConfig()
	if err != nil {
		return "", err
	}
	return config.ScopeID, nil
}
