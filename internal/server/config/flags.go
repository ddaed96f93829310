package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authserver/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   TCP bind address (e.g., "localhost:7777")
//	-d string   credential store file path
//	-l string   audit log directory
//	-t int      session TTL, minutes
//	-m int      max failed login attempts before a ban
//	-b int      ban duration, minutes
//	-s int      read buffer size, bytes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-l", "-t", "-m", "-b", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Address, "a", config.Address, "address and port to run server")
	fs.StringVar(&config.DatabasePath, "d", config.DatabasePath, "credential store path")
	fs.StringVar(&config.AuditLogDir, "l", config.AuditLogDir, "audit log directory")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session TTL (in minutes)")
	banDuration := fs.Int("b", int(config.BanDuration.Minutes()), "ban duration (in minutes)")

	fs.IntVar(&config.MaxLoginAttempts, "m", config.MaxLoginAttempts, "max failed login attempts")
	fs.IntVar(&config.ReadBufferSize, "s", config.ReadBufferSize, "read buffer size (in bytes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.BanDuration = time.Duration(*banDuration) * time.Minute
}
