package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		validate    func(t *testing.T, cfg *Config)
	}{
		{
			name: "complete valid config",
			configYAML: `
server:
  port: 8080
  api_keys:
    - name: "console"
      key: "console-secret"
    - name: "ci"
      key: "ci-secret"

history:
  enabled: true
  repository_url: "https://github.com/test/app-history.git"
  branch: "trunk"
  username: "testuser"
  token: "testtoken"
  local_path: "/tmp/history"
  author_name: "Test Author"
  author_email: "test@example.com"

plan:
  app_limit: 10

database:
  path: "/tmp/test.db"

logging:
  level: "debug"
  format: "text"
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Len(t, cfg.Server.APIKeys, 2)
				assert.Equal(t, "console", cfg.Server.APIKeys[0].Name)
				assert.True(t, cfg.History.Enabled)
				assert.Equal(t, "https://github.com/test/app-history.git", cfg.History.RepositoryURL)
				assert.Equal(t, "trunk", cfg.History.Branch)
				assert.Equal(t, "/tmp/history", cfg.History.LocalPath)
				assert.Equal(t, 10, cfg.Plan.AppLimit)
				assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "minimal config with defaults",
			configYAML: `
server:
  api_keys:
    - name: "console"
      key: "secret"
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.False(t, cfg.History.Enabled)
				assert.Equal(t, "main", cfg.History.Branch)
				assert.Equal(t, "/data/app-history", cfg.History.LocalPath)
				assert.Equal(t, "appsd", cfg.History.AuthorName)
				assert.Equal(t, 0, cfg.Plan.AppLimit)
				assert.Equal(t, "/data/apps.db", cfg.Database.Path)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name:        "invalid yaml",
			configYAML:  "server: [port",
			expectError: true,
		},
		{
			name: "negative app limit",
			configYAML: `
plan:
  app_limit: -1
`,
			expectError: true,
		},
		{
			name: "empty api key",
			configYAML: `
server:
  api_keys:
    - name: "broken"
      key: ""
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.configYAML))
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("APPSD_TEST_KEY", "from-env")

	cfg, err := Load(writeConfig(t, `
server:
  api_keys:
    - name: "env"
      key: "${APPSD_TEST_KEY}"
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Server.APIKeys[0].Key)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidateAPIKey(t *testing.T) {
	cfg := &Config{Server: ServerConfig{APIKeys: []APIKey{{Name: "a", Key: "one"}, {Name: "b", Key: "two"}}}}

	assert.True(t, cfg.ValidateAPIKey("one"))
	assert.True(t, cfg.ValidateAPIKey("two"))
	assert.False(t, cfg.ValidateAPIKey("three"))
	assert.False(t, cfg.ValidateAPIKey(""))
}
