package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempConfig points credential storage at a temp dir for the test.
func useTempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")

	original := credentialsPath
	t.Cleanup(func() { credentialsPath = original })
	credentialsPath = func() (string, error) { return path, nil }
	return path
}

func TestCredentialsPath(t *testing.T) {
	path, err := CredentialsPath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.True(t, strings.HasSuffix(path, filepath.Join("docpilot", "credentials.json")))
}

func TestLoadCredentials_FileNotExists(t *testing.T) {
	useTempConfig(t)

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestLoadCredentials_InvalidJSON(t *testing.T) {
	path := useTempConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{invalid json}"), 0o600))

	creds, err := LoadCredentials()
	assert.Error(t, err)
	assert.Nil(t, creds)
}

func TestSaveCredentials(t *testing.T) {
	path := useTempConfig(t)
	want := &Credentials{APIToken: "token-1234567890", APIURL: "http://localhost:8080"}

	require.NoError(t, SaveCredentials(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "token-1234567890", raw["api_token"])

	got, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestSaveCredentials_Nil(t *testing.T) {
	assert.Error(t, SaveCredentials(nil))
}

func TestDeleteCredentials(t *testing.T) {
	path := useTempConfig(t)
	require.NoError(t, SaveCredentials(&Credentials{APIToken: "t", APIURL: "u"}))

	require.NoError(t, DeleteCredentials())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, DeleteCredentials())
}

func TestResolveCredentials(t *testing.T) {
	tests := []struct {
		name      string
		flagToken string
		flagURL   string
		envToken  string
		envURL    string
		stored    *Credentials
		want      ResolvedCredentials
	}{
		{
			name:      "flags win",
			flagToken: "flag-token",
			flagURL:   "http://flag",
			envToken:  "env-token",
			envURL:    "http://env",
			want: ResolvedCredentials{
				Credentials: Credentials{APIToken: "flag-token", APIURL: "http://flag"},
				TokenSource: SourceFlag,
				URLSource:   SourceFlag,
			},
		},
		{
			name:     "env over stored",
			envToken: "env-token",
			envURL:   "http://env",
			stored:   &Credentials{APIToken: "stored-token", APIURL: "http://stored"},
			want: ResolvedCredentials{
				Credentials: Credentials{APIToken: "env-token", APIURL: "http://env"},
				TokenSource: SourceEnv,
				URLSource:   SourceEnv,
			},
		},
		{
			name:     "fields resolve independently",
			envToken: "env-token",
			stored:   &Credentials{APIToken: "stored-token", APIURL: "http://stored"},
			want: ResolvedCredentials{
				Credentials: Credentials{APIToken: "env-token", APIURL: "http://stored"},
				TokenSource: SourceEnv,
				URLSource:   SourceStored,
			},
		},
		{
			name: "nothing configured",
			want: ResolvedCredentials{
				Credentials: Credentials{APIURL: defaultAPIURL},
				TokenSource: SourceNone,
				URLSource:   SourceDefault,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useTempConfig(t)
			t.Setenv(envAPIToken, tt.envToken)
			t.Setenv(envAPIURL, tt.envURL)
			if tt.stored != nil {
				require.NoError(t, SaveCredentials(tt.stored))
			}

			got, err := ResolveCredentials(tt.flagToken, tt.flagURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig()
	require.Error(t, err)

	require.NoError(t, os.MkdirAll(docpilotDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(docpilotDir, configFile), []byte("scope_id: team-a\n"), 0644))

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "team-a", config.ScopeID)
}

func TestScopeFromName(t *testing.T) {
	tests := map[string]string{
		"Team A":       "team-a",
		"q1_reports":   "q1_reports",
		"--weird//dir": "weird-dir",
		"...":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ScopeFromName(in), in)
	}
}
