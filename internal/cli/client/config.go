package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Credentials are what `docpilot auth login` stores for later commands.
type Credentials struct {
	APIToken string `json:"api_token"`
	APIURL   string `json:"api_url"`
}

// credentialsPath is swapped out in tests.
var credentialsPath = func() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, "docpilot", "credentials.json"), nil
}

// CredentialsPath returns where credentials are stored on this machine.
func CredentialsPath() (string, error) {
	return credentialsPath()
}

// LoadCredentials reads the stored credentials. A missing file yields nil, nil.
func LoadCredentials() (*Credentials, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &creds, nil
}

// SaveCredentials replaces the stored credentials. The file is only readable
// by the current user and is swapped in with a rename so readers never see a
// partial write.
func SaveCredentials(creds *Credentials) error {
	if creds == nil {
		return errors.New("credentials cannot be nil")
	}

	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// DeleteCredentials removes the stored credentials, if any.
func DeleteCredentials() error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// CredentialSource names where a resolved value came from.
type CredentialSource string

const (
	SourceFlag    CredentialSource = "flag"
	SourceEnv     CredentialSource = "env"
	SourceStored  CredentialSource = "stored"
	SourceDefault CredentialSource = "default"
	SourceNone    CredentialSource = "none"
)

// ResolvedCredentials is the effective token and URL for a command.
type ResolvedCredentials struct {
	Credentials
	TokenSource CredentialSource
	URLSource   CredentialSource
}

// ResolveCredentials picks the token and URL independently, each from the
// first of: flag, environment (including .env), stored credentials. The URL
// falls back to the local default; a missing token stays empty since servers
// without DOCPILOT_API_TOKEN accept anonymous calls.
func ResolveCredentials(flagToken, flagURL string) (ResolvedCredentials, error) {
	stored, err := LoadCredentials()
	if err != nil {
		return ResolvedCredentials{}, err
	}
	if stored == nil {
		stored = &Credentials{}
	}

	var r ResolvedCredentials
	r.APIToken, r.TokenSource = pick(flagToken, os.Getenv(envAPIToken), stored.APIToken)
	r.APIURL, r.URLSource = pick(flagURL, os.Getenv(envAPIURL), stored.APIURL)
	if r.URLSource == SourceNone {
		r.APIURL, r.URLSource = defaultAPIURL, SourceDefault
	}
	return r, nil
}

func pick(flag, env, stored string) (string, CredentialSource) {
	switch {
	case flag != "":
		return flag, SourceFlag
	case env != "":
		return env, SourceEnv
	case stored != "":
		return stored, SourceStored
	}
	return "", SourceNone
}
