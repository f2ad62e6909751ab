package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk YAML shape. Durations are strings accepted by
// ParseDuration; empty or absent keys leave the current value untouched.
type fileConfig struct {
	Env         string `yaml:"env"`
	HTTPAddr    string `yaml:"http_addr"`
	DatabaseURL string `yaml:"database_url"`
	JWT         struct {
		AccessSecret  string `yaml:"access_secret"`
		RefreshSecret string `yaml:"refresh_secret"`
		AccessTTL     string `yaml:"access_ttl"`
		RefreshTTL    string `yaml:"refresh_ttl"`
		ResetTTL      string `yaml:"reset_ttl"`
	} `yaml:"jwt"`
	BcryptCost       int    `yaml:"bcrypt_cost"`
	ExposeResetToken *bool  `yaml:"expose_reset_token"`
	FrontendURL      string `yaml:"frontend_url"`
	Log              struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	HTTP struct {
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"http"`
}

// LoadFile overlays values from the YAML file at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return c.applyYAML(data)
}

func (c *Config) applyYAML(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}

	setString(&c.Env, fc.Env)
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.DatabaseURL, fc.DatabaseURL)
	setString(&c.AccessSecret, fc.JWT.AccessSecret)
	setString(&c.RefreshSecret, fc.JWT.RefreshSecret)
	setString(&c.FrontendURL, fc.FrontendURL)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	if fc.BcryptCost != 0 {
		c.BcryptCost = fc.BcryptCost
	}
	if fc.ExposeResetToken != nil {
		c.ExposeResetToken = *fc.ExposeResetToken
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{fc.JWT.AccessTTL, &c.AccessTTL},
		{fc.JWT.RefreshTTL, &c.RefreshTTL},
		{fc.JWT.ResetTTL, &c.ResetTTL},
		{fc.HTTP.ReadTimeout, &c.ReadTimeout},
		{fc.HTTP.WriteTimeout, &c.WriteTimeout},
		{fc.HTTP.ShutdownTimeout, &c.ShutdownTimeout},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.raw); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
