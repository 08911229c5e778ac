package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-i", "-t", "-f", "-log"}

// parseFlags overlays the command-line flags:
//
//	-a string   address and port of the gRPC server
//	-i int      online check interval, seconds
//	-t int      per-request timeout, seconds
//	-f string   path of the local session database
//	-log string log level
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})

	return nil
}
