package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authserver/internal/flagx"
	"github.com/dmitrijs2005/authserver/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "1m" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	Address          string         `json:"address"`
	DatabasePath     string         `json:"database_path"`
	AuditLogDir      string         `json:"audit_log_dir"`
	SessionTTL       timex.Duration `json:"session_ttl"`
	MaxLoginAttempts int            `json:"max_login_attempts"`
	BanDuration      timex.Duration `json:"ban_duration"`
	ReadBufferSize   int            `json:"read_buffer_size"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics: a broken config file should
// stop the process before it binds a socket.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Address != "" {
		config.Address = c.Address
	}
	if c.DatabasePath != "" {
		config.DatabasePath = c.DatabasePath
	}
	if c.AuditLogDir != "" {
		config.AuditLogDir = c.AuditLogDir
	}
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.MaxLoginAttempts != 0 {
		config.MaxLoginAttempts = c.MaxLoginAttempts
	}
	if c.BanDuration.Duration != 0 {
		config.BanDuration = c.BanDuration.Duration
	}
	if c.ReadBufferSize != 0 {
		config.ReadBufferSize = c.ReadBufferSize
	}
}
