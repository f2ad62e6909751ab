package config

import (
	"fmt"
	"strconv"
	"time"
)

// ApplyEnv overlays values from environment variables. lookup is usually
// os.LookupEnv; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("APP_ENV", &c.Env)
	str("DATABASE_URL", &c.DatabaseURL)
	str("JWT_SECRET", &c.AccessSecret)
	str("JWT_REFRESH_SECRET", &c.RefreshSecret)
	str("FRONTEND_URL", &c.FrontendURL)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("HTTP_ADDR", &c.HTTPAddr)
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, has := lookup("HTTP_ADDR"); !has {
			c.HTTPAddr = ":" + v
		}
	}

	for key, dst := range map[string]*time.Duration{
		"JWT_EXPIRES_IN":         &c.AccessTTL,
		"JWT_REFRESH_EXPIRES_IN": &c.RefreshTTL,
		"RESET_TOKEN_EXPIRES_IN": &c.ResetTTL,
	} {
		if v, ok := lookup(key); ok && v != "" {
			if err := setDuration(dst, v); err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
		}
	}

	if v, ok := lookup("BCRYPT_COST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BCRYPT_COST: %w", err)
		}
		c.BcryptCost = n
	}
	if v, ok := lookup("EXPOSE_RESET_TOKEN"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: EXPOSE_RESET_TOKEN: %w", err)
		}
		c.ExposeResetToken = b
	}
	return nil
}
