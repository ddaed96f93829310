// Package config handles configuration for the auth server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the auth server.
//
// Fields:
//   - Address: bind address for the TCP listener.
//   - DatabasePath: path of the flat-file credential store.
//   - AuditLogDir: directory for the append-only audit log.
//   - SessionTTL: how long a session stays valid after login.
//   - MaxLoginAttempts: failed logins from one IP before it is banned.
//   - BanDuration: how long a banned IP stays locked out.
//   - ReadBufferSize: upper bound in bytes for a single request line.
type Config struct {
	Address          string
	DatabasePath     string
	AuditLogDir      string
	SessionTTL       time.Duration
	MaxLoginAttempts int
	BanDuration      time.Duration
	ReadBufferSize   int
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Address = "localhost:7777"
	c.DatabasePath = "data/db.txt"
	c.AuditLogDir = "data/log"
	c.SessionTTL = 1 * time.Minute
	c.MaxLoginAttempts = 5
	c.BanDuration = 1 * time.Minute
	c.ReadBufferSize = 1024
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
