package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ahadchat/server/auth"
	"ahadchat/server/config"
	"ahadchat/server/handler"
	"ahadchat/server/logs"
	"ahadchat/server/room"
	"ahadchat/server/store"
)

func main() {
	if err := mainInner(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mainInner() error {
	configPath := flag.String("config", "ahadchat.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := logs.New(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return err
	}
	defer logger.Sync()

	backend, err := store.Open(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	rm := room.New(auth.FromConfig(cfg.Users), backend, room.Options{
		DisplayLimit:     cfg.Chat.DisplayLimit,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
		PollInterval:     cfg.PollInterval(backend.Variant.PollInterval()),
		AdminTools:       backend.Variant == store.VariantRemote,
	}, logger)
	manager := room.NewManager(rm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Handler:      handler.NewRouter(manager, logger),
		Addr:         cfg.Server.Addr,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		// Live feeds end with the server.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	wg := new(sync.WaitGroup)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweepSessions(ctx, manager, time.Duration(cfg.Server.SessionSweepHours)*time.Hour, logger)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("Server starting", "addr", cfg.Server.Addr, "backend", backend.Name,
			"variant", backend.Variant.String(), "poll_interval", rm.PollInterval())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-exit:
		logger.Infow("Signal caught", "sig", sig.String())
	case err := <-serveErr:
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("listen: %w", err)
		}
	}

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("Server forced to shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("Server exiting")
	return nil
}

// sweepSessions drops stale logged-out sessions once an hour until ctx ends.
func sweepSessions(ctx context.Context, manager *room.Manager, idle time.Duration, logger *zap.SugaredLogger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := manager.Sweep(idle); n > 0 {
				logger.Infow("Swept idle sessions", "removed", n, "remaining", manager.Len())
			}
		case <-ctx.Done():
			return
		}
	}
}
