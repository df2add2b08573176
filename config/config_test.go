package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetenv(t, "CONFIG_PATH", "PORT", "NODE_ENV", "UPLOAD_MAX_FILE_BYTES", "UPLOAD_MAX_FILES",
		"WORDS_PER_PAGE", "MIN_PAGE_WORDS", "WATERMARK_VERSION", "SESSION_TTL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxFileBytes)
	assert.Equal(t, 20, cfg.Upload.MaxFiles)
	assert.Equal(t, 300, cfg.Report.WordsPerPage)
	assert.Equal(t, 20, cfg.Report.MinPageWords)
	assert.Equal(t, "1.0", cfg.Report.WatermarkVersion)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverrides(t *testing.T) {
	unsetenv(t, "CONFIG_PATH")
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("UPLOAD_MAX_FILES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.Upload.MaxFiles)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_LLMKeyFallsBackToOpenAIVariable(t *testing.T) {
	unsetenv(t, "CONFIG_PATH", "NODE_ENV", "ANTHROPIC_API_KEY")
	t.Setenv("OPENAI_API_KEY", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.LLM.APIKey)

	t.Setenv("ANTHROPIC_API_KEY", "primary-key")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "primary-key", cfg.LLM.APIKey)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\nupload:\n  dir: /tmp/vv\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)
	unsetenv(t, "PORT", "UPLOAD_DIR", "NODE_ENV")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "/tmp/vv", cfg.Upload.Dir)
}

func TestValidate(t *testing.T) {
	unsetenv(t, "CONFIG_PATH", "NODE_ENV")
	cfg, err := Load()
	require.NoError(t, err)

	bad := *cfg
	bad.Env = "staging"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Report.MinPageWords = 500
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Upload.MaxFileBytes = 0
	assert.Error(t, bad.Validate())
}
