package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-l", "-m", "-d", "-k", "-s", "-t", "-r", "-v", "-w", "-u", "-e"}

// parseFlags overlays the short command-line flags:
//
//	-a string   gRPC bind address (":50051")
//	-l string   HTTP bind address (":8080")
//	-m string   storage backend (postgres|memory)
//	-d string   PostgreSQL DSN
//	-k string   Redis address for refresh tokens
//	-s string   JWT HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, days
//	-v int      verification token validity, hours
//	-w int      bcrypt cost
//	-u string   public application URL used in emailed links
//	-e string   environment (development|production)
//
// Other arguments are filtered out first so foreign flags never fail parsing.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.StorageBackend, "m", config.StorageBackend, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "k", config.RedisAddr, "redis address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.IntVar(&config.RefreshTokenValidityDays, "r", config.RefreshTokenValidityDays, "refresh token validity (in days)")
	verifyHours := fs.Int("v", int(config.VerificationTokenValidityDuration.Hours()), "verification token validity (in hours)")
	fs.IntVar(&config.BcryptCost, "w", config.BcryptCost, "bcrypt cost")

	fs.StringVar(&config.AppURL, "u", config.AppURL, "application URL")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	// Duration flags apply only when given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "v":
			config.VerificationTokenValidityDuration = time.Duration(*verifyHours) * time.Hour
		}
	})

	return nil
}
