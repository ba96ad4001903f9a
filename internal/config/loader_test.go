package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644)
	require.NoError(t, err)
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	tempDir := t.TempDir()

	cfg, err := LoadConfigWithEnv(tempDir, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.Equal(t, DefaultAPIURL, cfg.API.URL)
	assert.Equal(t, DefaultLoginPath, cfg.Auth.LoginPath)
	assert.False(t, cfg.Auth.Providers.Google.Enabled())
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, `
api:
  url: https://marketplace.example.com
  timeout: 5s
auth:
  callbackPort: 4100
  providers:
    google:
      clientId: google-client
logging:
  level: debug
`)

	cfg, err := LoadConfigWithEnv(tempDir, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "https://marketplace.example.com", cfg.API.URL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 4100, cfg.Auth.CallbackPort)
	assert.Equal(t, "google-client", cfg.Auth.Providers.Google.ClientID)
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.Auth.Providers.Google.Scopes, "defaults survive a partial provider block")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DefaultLoginPath, cfg.Auth.LoginPath)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, `
api:
  url: https://file.example.com
`)

	cfg, err := LoadConfigWithEnv(tempDir, map[string]string{
		"DATAMART_API_URL":          "https://env.example.com",
		"DATAMART_API_TIMEOUT":      "2s",
		"DATAMART_TOKEN_DIR":        "/tmp/datamart-tokens",
		"DATAMART_GITHUB_CLIENT_ID": "gh-client",
		"DATAMART_GITHUB_SCOPES":    "read:user repo",
		"DATAMART_LOG_FORMAT":       "json",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.API.URL)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/tmp/datamart-tokens", cfg.Auth.TokenDir)
	assert.Equal(t, "gh-client", cfg.Auth.Providers.GitHub.ClientID)
	assert.Equal(t, []string{"read:user", "repo"}, cfg.Auth.Providers.GitHub.Scopes)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, "api: [unterminated")

	_, err := LoadConfigWithEnv(tempDir, map[string]string{})
	require.Error(t, err)

	var cfgErr ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "parse", cfgErr.ErrorType)
	assert.Equal(t, "config.yaml", cfgErr.FileName)
	assert.Contains(t, err.Error(), "\n  - Check the YAML syntax of the file")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, `
api:
  url: ftp://example.com
auth:
  loginPath: login
  callbackPort: 70000
`)

	_, err := LoadConfigWithEnv(tempDir, map[string]string{})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"api.url", "auth.loginPath", "auth.callbackPort"}, fields)
}

func TestResolveTokenDir(t *testing.T) {
	original := osUserHomeDir
	defer func() { osUserHomeDir = original }()
	osUserHomeDir = func() (string, error) { return "/home/tester", nil }

	cfg := GetDefaultConfig()
	dir, err := cfg.ResolveTokenDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".config/datamart", "tokens"), dir)

	cfg.Auth.TokenDir = "/custom"
	dir, err = cfg.ResolveTokenDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom", dir)
}
