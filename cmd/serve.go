package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/minigrep/pkg/api"
	"github.com/rubiojr/minigrep/pkg/config"
	"github.com/rubiojr/minigrep/pkg/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP search API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides server.port)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides server.host)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

// serve runs the API server until SIGINT or SIGTERM, reloading the server
// limits whenever the configuration file changes.
func serve(ctx context.Context, configPath, host, port string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Log.File != "" {
		closer, err := log.SetupFile(logFileConfig(cfg.Log))
		if err != nil {
			return fmt.Errorf("setting up log file: %w", err)
		}
		defer closer.Close()
	}
	logger := log.ForService("serve")

	if host != "" {
		cfg.Server.Host = host
	}
	if port != "" {
		cfg.Server.Port = port
	}

	apiServer := api.NewServer(limitsFromConfig(cfg))
	server := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Starting API server on http://%s", server.Addr)
		logger.Infof("Available endpoints:")
		logger.Infof("  POST /api/search - Case-sensitive search, {query, content}")
		logger.Infof("  POST /api/grep   - Search with ignore_case, line_numbers and count")
		logger.Infof("  GET  /api/ws     - Websocket, one /api/grep request per message")
		logger.Infof("  GET  /health     - Health check")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		reloader := newConfigReloader(configPath, apiServer)
		return reloader.watch(gctx)
	})

	return g.Wait()
}

func limitsFromConfig(cfg *config.Config) api.Limits {
	return api.Limits{
		MaxContentBytes: cfg.Server.MaxContentBytes,
		CORS:            cfg.Server.CORS,
	}
}

func logFileConfig(cfg config.LogConfig) log.FileConfig {
	return log.FileConfig{
		Path:       cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// configReloader applies configuration file changes to a running server.
type configReloader struct {
	path   string
	server *api.Server
	logger *log.Logger
}

func newConfigReloader(path string, server *api.Server) *configReloader {
	return &configReloader{
		path:   path,
		server: server,
		logger: log.ForService("reload"),
	}
}

// reload reads the configuration again. A broken file leaves the current
// limits in place.
func (r *configReloader) reload() error {
	cfg, err := config.LoadConfig(r.path)
	if err != nil {
		return err
	}
	r.server.SetLimits(limitsFromConfig(cfg))
	return nil
}

// watch reloads on changes until ctx is done. Only [server] limits are
// applied; host and port need a restart.
func (r *configReloader) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.logger.Warnf("failed to create config file watcher: %v", err)
		<-ctx.Done()
		return nil
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			r.logger.Warnf("failed to close config file watcher: %v", err)
		}
	}()

	// Editors often replace files atomically, so watch the directory.
	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		r.logger.Warnf("failed to watch config directory %s: %v", dir, err)
		<-ctx.Done()
		return nil
	}
	r.logger.Infof("Watching config file for changes: %s", r.path)

	target := filepath.Clean(r.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if _, err := os.Stat(r.path); err != nil {
				continue
			}
			if err := r.reload(); err != nil {
				r.logger.Warnf("Failed to reload configuration: %v", err)
				continue
			}
			r.logger.Infof("Configuration reloaded (%s)", event.Op)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warnf("config watcher error: %v", err)
		}
	}
}
