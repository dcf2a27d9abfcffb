package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/financa/internal/flagx"
	"github.com/dmitrijs2005/financa/internal/timex"
)

// JSONConfig is the on-disk shape of the configuration file. Duration fields
// use timex.Duration so both "12h" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from "zero".
type JSONConfig struct {
	HTTPAddr     *string         `json:"http_addr"`
	DatabaseDSN  *string         `json:"database_dsn"`
	SecretKey    *string         `json:"secret_key"`
	Issuer       *string         `json:"issuer"`
	Audience     *string         `json:"audience"`
	TokenTTL     *timex.Duration `json:"token_ttl"`
	TokenLeeway  *timex.Duration `json:"token_leeway"`
	PasswordCost *int            `json:"password_cost"`
}

// parseJSON overlays values from the file given by -c/-config, if any.
// Keys missing from the file keep their current value.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JSONConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)
	setString(&config.Audience, c.Audience)
	if c.TokenTTL != nil {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.TokenLeeway != nil {
		config.TokenLeeway = c.TokenLeeway.Duration
	}
	if c.PasswordCost != nil {
		config.PasswordCost = *c.PasswordCost
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
