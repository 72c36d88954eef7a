package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/archive"
	"github.com/park285/cheese-board/internal/httpapi"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/obslog"
	"github.com/park285/cheese-board/internal/session"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	mgr, err := session.NewManager(cfg.RedisURL, session.WithTTL(cfg.SessionTTL))
	if err != nil {
		logger.Fatal("session manager init error", zap.Error(err))
	}
	defer func() { _ = mgr.Close() }()

	if cfg.ArchiveEnabled() {
		repo, err := archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("archive init error", zap.Error(err))
		}
		defer func() { _ = repo.Close() }()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := repo.EnsureSchema(ctx); err != nil {
			cancel()
			logger.Fatal("archive schema error", zap.Error(err))
		}
		cancel()
		mgr.AttachArchiver(repo)
	} else {
		logger.Info("archive_disabled")
	}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("message catalog error", zap.Error(err))
	}

	srv := httpapi.NewServer(mgr, msgs, httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes))
	errC := make(chan error, 1)
	go func() { errC <- srv.Listen(cfg.HTTPAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown", zap.String("signal", sig.String()))
	case err := <-errC:
		if err != nil {
			logger.Error("http_server_error", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http_shutdown_error", zap.Error(err))
	}
}
