package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_LANG", "")
	t.Setenv("PRODUCT_STALE_TIME", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("TEMPLATE_RELOAD", "")

	cfg := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "vi", cfg.DefaultLang)
	assert.Equal(t, 3*time.Minute, cfg.ProductStale)
	assert.Zero(t, cfg.APITimeout)
	assert.False(t, cfg.TemplateReload, "templates are parsed once unless asked")
}

func TestLoadTemplateReload(t *testing.T) {
	t.Setenv("TEMPLATE_RELOAD", "true")
	cfg := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.True(t, cfg.TemplateReload)
}

func TestLoadEnvFileAndDurations(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(f, []byte("SHOPFRONT_TEST_ONLY=1\nLOCALES_DIR=/tmp/locales\n"), 0o644))
	t.Setenv("LOCALES_DIR", "")
	os.Unsetenv("LOCALES_DIR")
	t.Setenv("API_TIMEOUT", "15")
	t.Setenv("PRODUCT_STALE_TIME", "90s")
	t.Cleanup(func() { os.Unsetenv("SHOPFRONT_TEST_ONLY") })

	cfg := config.Load(f)
	assert.Equal(t, "/tmp/locales", cfg.LocalesDir)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, 90*time.Second, cfg.ProductStale)
	assert.Equal(t, "1", os.Getenv("SHOPFRONT_TEST_ONLY"))
}
