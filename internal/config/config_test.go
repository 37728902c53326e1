package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("THRONEMIND_API_ORIGIN", "")
	t.Setenv("THRONEMIND_TIMEOUT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIOrigin, cfg.APIOrigin)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultLocale, cfg.Locale)
	assert.Equal(t, "http://192.168.20.43:8083/api/v1/", cfg.BaseURL())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api_origin: https://api.example.com\ntimeout: 3s\nlocale: en-US\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("THRONEMIND_LOCALE", "de-DE")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIOrigin)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "de-DE", cfg.Locale)
}

func TestLoad_RejectsBadOrigin(t *testing.T) {
	t.Setenv("THRONEMIND_API_ORIGIN", "ftp://nope")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBaseURL_TrimsSlashes(t *testing.T) {
	cfg := &Config{APIOrigin: "http://h:1/", APIBasePath: "/api/v1/"}
	assert.Equal(t, "http://h:1/api/v1/", cfg.BaseURL())

	cfg.APIBasePath = ""
	assert.Equal(t, "http://h:1/", cfg.BaseURL())
}
