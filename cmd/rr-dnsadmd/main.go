package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/haukened/rr-dnsadm/internal/dns/common/clock"
	"github.com/haukened/rr-dnsadm/internal/dns/common/log"
	"github.com/haukened/rr-dnsadm/internal/dns/config"
	"github.com/haukened/rr-dnsadm/internal/dns/gateways/transport"
	"github.com/haukened/rr-dnsadm/internal/dns/gateways/upstream"
	"github.com/haukened/rr-dnsadm/internal/dns/repos/directory/bolt"
	"github.com/haukened/rr-dnsadm/internal/dns/repos/directory/memory"
	"github.com/haukened/rr-dnsadm/internal/dns/repos/entrycache"
	"github.com/haukened/rr-dnsadm/internal/dns/repos/zonefile"
	"github.com/haukened/rr-dnsadm/internal/dns/services/dnsadmin"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-dnsadmd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the admin daemon
type Application struct {
	config    *config.AppConfig
	service   *dnsadmin.Service
	transport dnsadmin.ServerTransport
	importer  *zonefile.Importer
	closers   []io.Closer
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.Log.Level,
		"listen":     cfg.Admin.Listen,
		"store":      cfg.Directory.Store,
		"base_dn":    cfg.Directory.BaseDN,
		"cache_size": cfg.Directory.Cache.Size,
		"import_dir": cfg.Import.Directory,
	}, "Starting "+appName)

	// Build application with all dependencies
	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	_ = log.Sync()
	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	baseDN, err := cfg.ParsedBaseDN()
	if err != nil {
		return nil, fmt.Errorf("invalid base DN: %w", err)
	}

	dir, closers, err := buildDirectory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory: %w", err)
	}

	glue, err := buildGlue(cfg)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("failed to build glue resolver: %w", err)
	}

	svc, err := dnsadmin.New(dnsadmin.Options{
		Directory:   dir,
		Logger:      logger,
		Clock:       clock.RealClock{},
		BaseDN:      baseDN,
		SOADefaults: cfg.SOA,
		SizeLimit:   cfg.Directory.SizeLimit,
		Glue:        glue,
	})
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("failed to build service: %w", err)
	}

	tr, err := transport.NewTransport(transport.TransportHTTP, cfg.Admin.Listen, logger)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}

	return &Application{
		config:    cfg,
		service:   svc,
		transport: tr,
		importer:  zonefile.NewImporter(svc, logger),
		closers:   closers,
	}, nil
}

// buildDirectory opens the configured store and wraps it in the entry cache.
func buildDirectory(cfg *config.AppConfig) (dnsadmin.Directory, []io.Closer, error) {
	var (
		dir     dnsadmin.Directory
		closers []io.Closer
	)
	switch cfg.Directory.Store {
	case "memory":
		dir = memory.New()
		log.Warn(nil, "Using in-memory directory; data is lost on exit")
	case "bolt":
		if err := os.MkdirAll(filepath.Dir(cfg.Directory.DBPath), 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := bolt.New(cfg.Directory.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", cfg.Directory.DBPath, err)
		}
		dir = store
		closers = append(closers, store)
		log.Info(map[string]any{"path": cfg.Directory.DBPath}, "Bolt directory opened")
	default:
		return nil, nil, fmt.Errorf("unsupported store %q", cfg.Directory.Store)
	}

	// Safely convert uint to int with bounds check
	cacheSize := cfg.Directory.Cache.Size
	if cacheSize > uint(^uint(0)>>1) {
		closeAll(closers)
		return nil, nil, fmt.Errorf("cache size too large: %d (max %d)", cacheSize, ^uint(0)>>1)
	}
	cached, err := entrycache.New(dir, int(cacheSize))
	if err != nil {
		closeAll(closers)
		return nil, nil, fmt.Errorf("failed to create entry cache: %w", err)
	}
	if cacheSize == 0 {
		log.Info(map[string]any{"disabled": true}, "Entry caching disabled")
	} else {
		log.Info(map[string]any{"type": "LRU", "size": cacheSize}, "Entry cache configured")
	}
	return cached, closers, nil
}

// buildGlue returns the upstream resolver, or nil when no glue servers are configured.
func buildGlue(cfg *config.AppConfig) (dnsadmin.GlueResolver, error) {
	if len(cfg.Glue.Servers) == 0 {
		return nil, nil
	}
	r, err := upstream.NewResolver(upstream.Options{
		Servers:  cfg.Glue.Servers,
		Timeout:  cfg.Glue.Timeout,
		Parallel: cfg.Glue.Parallel,
	})
	if err != nil {
		return nil, err
	}
	log.Info(map[string]any{
		"servers":  cfg.Glue.Servers,
		"timeout":  cfg.Glue.Timeout,
		"parallel": cfg.Glue.Parallel,
	}, "Upstream glue lookup configured")
	return r, nil
}

// Run bootstraps the directory, imports zone files, serves commands and blocks until ctx is
// cancelled or a component fails.
func (app *Application) Run(ctx context.Context) error {
	defer closeAll(app.closers)

	if err := app.service.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap directory: %w", err)
	}

	if app.config.Import.Directory != "" {
		if err := app.importZones(ctx); err != nil {
			log.Error(map[string]any{"error": err.Error()}, "Zone import finished with errors")
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := app.transport.Start(gctx, app.service); err != nil {
		return fmt.Errorf("failed to start transport: %w", err)
	}
	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": transport.TransportHTTP,
	}, "Admin server started")

	if app.config.Import.Watch {
		g.Go(func() error {
			return app.watchImports(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	runErr := g.Wait()
	log.Info(nil, "Shutdown initiated")

	done := make(chan error, 1)
	go func() {
		done <- app.transport.Stop()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
		}
		log.Info(nil, "Graceful shutdown completed")
		return multierr.Append(runErr, err)
	case <-time.After(defaultShutdownTimeout):
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return multierr.Append(runErr, errors.New("shutdown timeout"))
	}
}

// importZones loads the import directory and applies it.
func (app *Application) importZones(ctx context.Context) error {
	zones, err := zonefile.LoadDirectory(app.config.Import.Directory)
	if err != nil {
		return fmt.Errorf("failed to load import directory: %w", err)
	}
	stats, err := app.importer.Import(ctx, zones)
	log.Info(map[string]any{
		"import_dir":    app.config.Import.Directory,
		"zones":         len(zones),
		"zones_created": stats.ZonesCreated,
	}, "Zone files imported")
	return err
}

// closeAll closes every closer, logging the combined error.
func closeAll(closers []io.Closer) {
	var err error
	for _, c := range closers {
		err = multierr.Append(err, c.Close())
	}
	if err != nil {
		log.Warn(map[string]any{"error": err.Error()}, "Error closing resources")
	}
}
