package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/financa/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-i string   token issuer
//	-u string   token audience
//	-t int      token lifetime, minutes
//	-l int      expiry leeway, seconds
//	-k int      bcrypt cost factor
//
// Arguments not in this list are filtered out first, so the config file flag
// and flags owned by other components do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-i", "-u", "-t", "-l", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.Issuer, "i", config.Issuer, "token issuer")
	fs.StringVar(&config.Audience, "u", config.Audience, "token audience")

	ttl := fs.Int("t", int(config.TokenTTL.Minutes()), "token lifetime (in minutes)")
	leeway := fs.Int("l", int(config.TokenLeeway.Seconds()), "token expiry leeway (in seconds)")

	fs.IntVar(&config.PasswordCost, "k", config.PasswordCost, "bcrypt cost factor")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only explicitly set duration flags apply; the minute/second defaults
	// would otherwise truncate finer values coming from JSON or env.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.TokenTTL = time.Duration(*ttl) * time.Minute
		case "l":
			config.TokenLeeway = time.Duration(*leeway) * time.Second
		}
	})
	return nil
}
