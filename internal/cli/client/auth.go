package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// AuthCmd creates the auth parent command
func AuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication credentials",
		Long:  "Login, logout, and check authentication status for the docpilot CLI",
	}

	cmd.AddCommand(AuthLoginCmd())
	cmd.AddCommand(AuthLogoutCmd())
	cmd.AddCommand(AuthStatusCmd())

	return cmd
}

// AuthLoginCmd creates the auth login command
func AuthLoginCmd() *cobra.Command {
	var apiToken string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with an API token",
		Long:  "Store the API token and URL in the user config directory (docpilot/credentials.json)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(apiToken, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiToken, "token", "", "API token configured on the server")
	cmd.Flags().StringVar(&apiURL, "url", defaultAPIURL, "API URL")

	return cmd
}

// AuthLogoutCmd creates the auth logout command
func AuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and clear credentials",
		Long:  "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogout()
		},
	}
}

// AuthStatusCmd creates the auth status command
func AuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Show the token and API URL commands will use, and where each comes from",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAuthStatus(outputJSON)
		},
	}
}

func runAuthLogin(apiToken, apiURL string) error {
	if apiToken == "" {
		fmt.Print("Enter API token: ")
		input, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read API token: %w", err)
		}
		apiToken = strings.TrimSpace(input)
	}
	if apiToken == "" {
		return fmt.Errorf("API token is required")
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	if err := SaveCredentials(&Credentials{APIToken: apiToken, APIURL: apiURL}); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("Logged in to %s\n", apiURL)
	return nil
}

func runAuthLogout() error {
	if err := DeleteCredentials(); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	fmt.Println("Logged out")
	return nil
}

type authStatus struct {
	Authenticated bool             `json:"authenticated"`
	TokenSource   CredentialSource `json:"token_source"`
	APIToken      string           `json:"api_token,omitempty"`
	APIURL        string           `json:"api_url"`
	URLSource     CredentialSource `json:"url_source"`
}

func runAuthStatus(outputJSON bool) error {
	creds, err := ResolveCredentials("", "")
	if err != nil {
		return err
	}

	status := authStatus{
		Authenticated: creds.TokenSource != SourceNone,
		TokenSource:   creds.TokenSource,
		APIURL:        creds.APIURL,
		URLSource:     creds.URLSource,
	}
	if status.Authenticated {
		status.APIToken = maskToken(creds.APIToken)
	}

	if outputJSON {
		return printJSON(status)
	}

	if !status.Authenticated {
		fmt.Println("Not authenticated")
		fmt.Println("Run 'docpilot auth login' to store a token")
	} else {
		fmt.Printf("Token: %s (%s)\n", status.APIToken, status.TokenSource)
	}
	fmt.Printf("API URL: %s (%s)\n", status.APIURL, status.URLSource)
	return nil
}

func maskToken(token string) string {
	if len(token) < 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
