package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sandboxd/internal/config"
	"sandboxd/internal/httpapi"
	"sandboxd/internal/interp"
	"sandboxd/internal/logging"
	"sandboxd/internal/pool"
	"sandboxd/internal/process"
	"sandboxd/internal/proxy"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sandboxd HTTP control plane",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if workspace != "" {
		cfg.Server.Workspace = workspace
	}

	if err := logging.Initialize(cfg.Server.Workspace, logging.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		DebugMode:  cfg.Logging.DebugMode,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logging: %v\n", err)
	}
	if err := logging.InitAudit(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize security audit log: %v\n", err)
	}
	defer logging.CloseAudit()
	defer logging.CloseAll()

	boot := logging.Get(logging.CategoryBoot)
	boot.Info("starting sandboxd sandboxId=%s port=%d workspace=%s", cfg.Server.SandboxID, cfg.Server.Port, cfg.Server.Workspace)

	configWatcher, err := config.WatchFile(configPath)
	if err != nil {
		boot.Warn("config hot-reload disabled: %v", err)
	} else {
		defer configWatcher.Stop()
	}

	poolMgr := pool.NewManager(cfg, logging.Get(logging.CategoryPool))
	prewarmCtx, cancelPrewarm := context.WithTimeout(context.Background(), 30*time.Second)
	if err := poolMgr.PreWarm(prewarmCtx); err != nil {
		boot.Warn("pre-warm did not fully complete: %v", err)
	}
	cancelPrewarm()
	poolMgr.StartReclamation(shortestIdleTimeout(cfg) / 2)
	defer poolMgr.Shutdown()

	procs := process.NewManager(cfg.Server.DenyCommands)
	defer procs.KillAll()

	interpSvc := interp.NewService(poolMgr)
	registry := proxy.NewRegistry(cfg.Server.ReservedPorts)
	router := proxy.NewRouter(registry, cfg.Server.SandboxID, cfg.Server.Domain, cfg.Server.ReservedPorts)

	server := httpapi.NewServer(cfg, poolMgr, procs, interpSvc, registry, router)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		boot.Info("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
			return
		}
		serveErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		boot.Info("received signal %s, shutting down", sig)
	case err := <-serveErrCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		boot.Warn("graceful shutdown timed out: %v", err)
	}
	boot.Info("sandboxd stopped")
	return nil
}

// shortestIdleTimeout finds the shortest configured pool idle timeout, used
// as the basis for the reclamation interval (spec §5 "default: half of the
// shortest language idle timeout").
func shortestIdleTimeout(cfg *config.Config) time.Duration {
	shortest := 5 * time.Minute
	first := true
	for _, pc := range cfg.Pools {
		d := pc.IdleTimeoutDuration()
		if first || d < shortest {
			shortest = d
			first = false
		}
	}
	return shortest
}
