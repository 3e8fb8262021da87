package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-afip/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AFIP_CUIT", "20267565393")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "20267565393", cfg.AFIP.CUIT)
	assert.False(t, cfg.AFIP.Production)
	assert.Equal(t, 60*time.Second, cfg.AFIP.Timeout)
	assert.Equal(t, 2, cfg.AFIP.RetryMax)
	assert.True(t, cfg.AFIP.SerializeNum)
	assert.Equal(t, "0.0.0.0:5000", cfg.HTTP.Addr())
	assert.Empty(t, cfg.HTTP.JWTSecret)
	assert.Equal(t, "facturador-afip", cfg.HTTP.JWTIssuer)
}

func TestLoad_VariablesDelServicioOriginal(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CUIT", "30000000007")
	t.Setenv("PRODUCTION", "true")
	t.Setenv("INSTANCE_PORT", "8081")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "30000000007", cfg.AFIP.CUIT)
	assert.True(t, cfg.AFIP.Production)
	assert.Equal(t, 8081, cfg.HTTP.Port)
}

func TestLoad_SinCUIT(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AFIP_CUIT", "")
	t.Setenv("CUIT", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_RetryNegativo(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AFIP_CUIT", "20267565393")
	t.Setenv("AFIP_RETRY_MAX", "-1")

	_, err := config.Load()
	assert.Error(t, err)
}

// chdir replicates testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
