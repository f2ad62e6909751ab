package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":3001", c.HTTPAddr)
	assert.Equal(t, 15*time.Minute, c.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTTL)
	assert.Equal(t, time.Hour, c.ResetTTL)
	assert.Equal(t, EnvDevelopment, c.Env)
	assert.False(t, c.ExposeResetToken)
	require.NoError(t, c.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repfy.yaml")
	yml := `
http_addr: ":8080"
jwt:
  access_secret: file-access
  refresh_secret: file-refresh
  access_ttl: 5m
  refresh_ttl: 2d
log:
  level: debug
expose_reset_token: true
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	c, err := Load(path, mapLookup(map[string]string{
		"JWT_SECRET":     "env-access",
		"JWT_EXPIRES_IN": "30m",
		"PORT":           "9000",
	}))
	require.NoError(t, err)

	assert.Equal(t, "env-access", c.AccessSecret)
	assert.Equal(t, "file-refresh", c.RefreshSecret)
	assert.Equal(t, 30*time.Minute, c.AccessTTL)
	assert.Equal(t, 48*time.Hour, c.RefreshTTL)
	assert.Equal(t, time.Hour, c.ResetTTL)
	assert.Equal(t, ":9000", c.HTTPAddr)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.ExposeResetToken)
}

func TestLoad_HTTPAddrWinsOverPort(t *testing.T) {
	c, err := Load("", mapLookup(map[string]string{
		"PORT":      "9000",
		"HTTP_ADDR": "127.0.0.1:7000",
	}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", c.HTTPAddr)
}

func TestLoad_BadValues(t *testing.T) {
	_, err := Load("", mapLookup(map[string]string{"JWT_EXPIRES_IN": "soon"}))
	assert.Error(t, err)

	_, err = Load("", mapLookup(map[string]string{"BCRYPT_COST": "ten"}))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var c Config
		c.LoadDefaults()
		return c
	}

	c := base()
	c.AccessSecret = ""
	assert.Error(t, c.Validate())

	c = base()
	c.RefreshSecret = c.AccessSecret
	assert.ErrorContains(t, c.Validate(), "must differ")

	c = base()
	c.ResetTTL = 0
	assert.Error(t, c.Validate())

	c = base()
	c.BcryptCost = 2
	assert.Error(t, c.Validate())
}

func TestValidateRejectsDefaultSecretsInProduction(t *testing.T) {
	var c Config
	c.LoadDefaults()
	require.NoError(t, c.Validate())

	c.Env = EnvProduction
	err := c.Validate()
	assert.ErrorContains(t, err, "access secret is the development default")
	assert.ErrorContains(t, err, "refresh secret is the development default")

	c.AccessSecret = "prod-access-7f3a"
	err = c.Validate()
	assert.NotContains(t, err.Error(), "access secret is the development default")
	assert.ErrorContains(t, err, "refresh secret is the development default")

	c.RefreshSecret = "prod-refresh-91bc"
	assert.NoError(t, c.Validate())
}

func TestResetTokenExposed(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.ExposeResetToken = true
	assert.True(t, c.ResetTokenExposed())

	c.Env = EnvProduction
	assert.False(t, c.ResetTokenExposed())
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("7d")
	require.NoError(t, err)
	assert.Equal(t, 168*time.Hour, d)

	d, err = ParseDuration("15m")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
}
