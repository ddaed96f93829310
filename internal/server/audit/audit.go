// Package audit implements the append-only audit trail for sensitive
// operations. The audit log is a security artifact, separate from
// operational logging: every login attempt, logout, and credential mutation
// leaves a record here.
package audit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/authserver/internal/filex"
)

// Log records authentication and administration events. Implementations
// must be safe to call from the single dispatch goroutine; they never
// return errors to the caller because a failed audit write must not fail
// the audited operation.
type Log interface {
	// LogLogin records a successful login for user from ip.
	LogLogin(user, ip string)

	// LogLogout records an explicit logout.
	LogLogout(user, ip string)

	// LogUnsuccessfulLogin records a failed login attempt.
	LogUnsuccessfulLogin(user, ip string)

	// LogCommandStart records the begin bracket of a mutating command.
	LogCommandStart(cmd, user, ip, detail string)

	// LogCommandEnd records the end bracket with its outcome.
	LogCommandEnd(cmd, user, ip, result string)

	// LogError records an internal failure with full detail. The client
	// only ever sees a vague message; this entry holds the real cause.
	LogError(ip string, err error)
}

const logName = "log.txt"

// FileLog appends one text line per event to <dir>/log.txt.
type FileLog struct {
	l *slog.Logger
	f *os.File
}

var _ Log = (*FileLog)(nil)

// NewFileLog creates the log directory and file if needed and opens the
// file for appending.
func NewFileLog(dir string) (*FileLog, error) {
	if err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, logName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o660)
	if err != nil {
		return nil, fmt.Errorf("opening audit log %s: %w", path, err)
	}
	return &FileLog{
		l: slog.New(slog.NewTextHandler(f, nil)),
		f: f,
	}, nil
}

// Close releases the underlying file.
func (a *FileLog) Close() error {
	return a.f.Close()
}

func (a *FileLog) LogLogin(user, ip string) {
	a.l.Info("successful login", "user", user, "ip", ip)
}

func (a *FileLog) LogLogout(user, ip string) {
	a.l.Info("logout", "user", user, "ip", ip)
}

func (a *FileLog) LogUnsuccessfulLogin(user, ip string) {
	a.l.Warn("unsuccessful login", "user", user, "ip", ip)
}

func (a *FileLog) LogCommandStart(cmd, user, ip, detail string) {
	a.l.Info("command start", "command", cmd, "user", user, "ip", ip, "detail", detail)
}

func (a *FileLog) LogCommandEnd(cmd, user, ip, result string) {
	a.l.Info("command end", "command", cmd, "user", user, "ip", ip, "result", result)
}

func (a *FileLog) LogError(ip string, err error) {
	a.l.Error("internal error", "ip", ip, "error", err.Error())
}
