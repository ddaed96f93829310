// Package server wires the auth server together: it loads configuration,
// opens the credential store and audit log, builds the command processor,
// and runs the TCP listener until the process is signalled to stop.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/authserver/internal/logging"
	"github.com/dmitrijs2005/authserver/internal/server/audit"
	"github.com/dmitrijs2005/authserver/internal/server/ban"
	"github.com/dmitrijs2005/authserver/internal/server/command"
	"github.com/dmitrijs2005/authserver/internal/server/config"
	"github.com/dmitrijs2005/authserver/internal/server/session"
	"github.com/dmitrijs2005/authserver/internal/server/store"
	"github.com/dmitrijs2005/authserver/internal/server/tcp"
)

type App struct {
	config *config.Config
	logger logging.Logger
	audit  *audit.FileLog
	server *tcp.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	auditLog, err := audit.NewFileLog(cfg.AuditLogDir)
	if err != nil {
		return nil, fmt.Errorf("audit log init error: %w", err)
	}

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		auditLog.Close()
		return nil, fmt.Errorf("store init error: %w", err)
	}

	sessions := session.NewManager(cfg.SessionTTL)
	bans := ban.NewManager(cfg.MaxLoginAttempts, cfg.BanDuration)
	processor := command.NewProcessor(s, sessions, bans, auditLog)
	srv := tcp.NewServer(cfg.Address, cfg.ReadBufferSize, processor, sessions, auditLog, logger)

	return &App{config: cfg, logger: logger, audit: auditLog, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or an interrupt signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting auth server",
		"address", app.config.Address,
		"database", app.config.DatabasePath,
	)

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)

	if closeErr := app.audit.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	app.logger.Info(ctx, "auth server stopped")
	return err
}
