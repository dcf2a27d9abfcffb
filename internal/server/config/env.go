package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv reads .env from the working directory into the process
// environment. A missing file is not an error; variables already set win.
// LoadConfig calls it before reading the real environment.
var loadDotEnv = func() { _ = godotenv.Load() }

// parseEnv overlays values from environment variables:
//
//	HTTP_ADDR      bind address
//	DATABASE_DSN   PostgreSQL DSN
//	JWT_KEY        token signing secret
//	JWT_ISSUER     token issuer
//	JWT_AUDIENCE   token audience
//	JWT_TTL        token lifetime, Go duration ("12h")
//	JWT_LEEWAY     expiry leeway, Go duration ("5s")
//	PASSWORD_COST  bcrypt cost factor
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_ADDR":    &config.HTTPAddr,
		"DATABASE_DSN": &config.DatabaseDSN,
		"JWT_KEY":      &config.SecretKey,
		"JWT_ISSUER":   &config.Issuer,
		"JWT_AUDIENCE": &config.Audience,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"JWT_TTL":    &config.TokenTTL,
		"JWT_LEEWAY": &config.TokenLeeway,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("PASSWORD_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PASSWORD_COST: %w", err)
		}
		config.PasswordCost = n
	}
	return nil
}
