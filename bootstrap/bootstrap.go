// Package bootstrap wires configuration, storage, metrics and the plugin
// loader around the registration coordinator and runs the result.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/artpar/mira/adapters/clock"
	apihttp "github.com/artpar/mira/adapters/http"
	"github.com/artpar/mira/adapters/idgen"
	"github.com/artpar/mira/adapters/loader"
	"github.com/artpar/mira/adapters/metrics"
	"github.com/artpar/mira/adapters/sqlite"
	"github.com/artpar/mira/config"
	"github.com/artpar/mira/core/coordinator"
	"github.com/artpar/mira/core/events"
	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// ConfigPath is the YAML config file. When it does not exist the
	// configuration comes from MIRA_* environment variables only.
	ConfigPath string

	// Catalog holds the loadable plugins. Defaults to loader.Default().
	Catalog *loader.Catalog

	// Version is reported by the introspection server.
	Version string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer
}

// App is the wired runtime.
type App struct {
	Logger zerolog.Logger
	Config *config.Config

	// Holder is nil when the configuration came from the environment.
	Holder *config.Holder

	// DB and Journal are nil when the journal is disabled.
	DB      *sqlite.DB
	Journal *sqlite.Journal

	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Collector

	Coordinator *coordinator.Coordinator
	Loader      *loader.Loader
	HTTPServer  *http.Server

	pruner    *JournalPruner
	retention atomic.Int64
}

// New loads configuration and builds every component. Nothing is loaded and
// no listener is opened until Load or Run.
func New(opts Options) (*App, error) {
	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := NewLogger(cfg.Logging, out)
	logger.Info().Str("version", opts.Version).Msg("initializing mira")

	a := &App{Logger: logger, Config: cfg}
	a.retention.Store(int64(cfg.Journal.Retention))

	if opts.ConfigPath != "" {
		if _, statErr := os.Stat(opts.ConfigPath); statErr == nil {
			holder, err := config.NewHolder(opts.ConfigPath, logger)
			if err != nil {
				return nil, err
			}
			a.Holder = holder
		}
	}

	if cfg.Journal.Enabled {
		if err := a.initJournal(cfg.Journal); err != nil {
			return nil, fmt.Errorf("init journal: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	a.initCoordinator()

	catalog := opts.Catalog
	if catalog == nil {
		catalog = loader.Default()
	}
	var manifest *loader.Manifest
	if cfg.Plugins.Manifest != "" {
		manifest, err = loader.LoadManifest(cfg.Plugins.Manifest)
		if err != nil {
			a.Shutdown()
			return nil, err
		}
	}
	a.Loader = loader.New(catalog, manifest, logger)

	if err := RegisterFinishHooks(a.Coordinator, a.pruner, logger); err != nil {
		a.Shutdown()
		return nil, err
	}

	a.watchConfig()
	a.initHTTPServer(cfg, opts.Version)

	return a, nil
}

func (a *App) initJournal(cfg config.JournalConfig) error {
	db, err := sqlite.Open(cfg.DSN)
	if err != nil {
		return err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Journal = sqlite.NewJournal(db)
	a.pruner = NewJournalPruner(a.Journal, clock.Real{}, a.Retention, time.Hour, a.Logger)
	a.Logger.Info().Str("dsn", cfg.DSN).Msg("diagnostic journal initialized")
	return nil
}

func (a *App) initCoordinator() {
	var busOpts []events.Option
	cc := coordinator.Config{
		Logger: a.Logger,
		Clock:  clock.Real{},
		IDs:    idgen.UUID{},
	}
	if a.Metrics != nil {
		busOpts = append(busOpts, events.WithObserver(a.Metrics))
		cc.Observer = a.Metrics
	}
	if a.Journal != nil {
		cc.Journal = a.Journal
	}
	cc.Bus = events.NewBus(a.Logger, busOpts...)

	a.Coordinator = coordinator.New(cc)
}

// watchConfig applies hot-reloadable settings when the config file changes.
func (a *App) watchConfig() {
	if a.Holder == nil {
		return
	}

	a.Holder.OnChange(func(cfg *config.Config) {
		if level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level)); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		a.retention.Store(int64(cfg.Journal.Retention))
	})
	if a.Metrics != nil {
		a.Holder.OnReload(func(err error) {
			a.Metrics.ObserveConfigReload(err, time.Now())
		})
	}
}

func (a *App) initHTTPServer(cfg *config.Config, version string) {
	rc := apihttp.RouterConfig{
		Coordinator: a.Coordinator,
		Version:     version,
		EnableDocs:  cfg.HTTP.Docs,
	}
	if a.Journal != nil {
		rc.Journal = a.Journal
	}
	if a.Metrics != nil {
		rc.MetricsHandler = a.Metrics.Handler()
		rc.MetricsPath = cfg.Metrics.Path
	}

	a.HTTPServer = &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      apihttp.NewRouter(rc, a.Logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
}

// Retention returns the current journal retention.
func (a *App) Retention() time.Duration {
	return time.Duration(a.retention.Load())
}

// Load feeds every planned plugin to the coordinator and finishes
// registration. Plugin failures are returned joined but do not stop loading.
func (a *App) Load(ctx context.Context) error {
	start := time.Now()
	err := a.Coordinator.Run(ctx, a.Loader.Start(ctx))

	a.Logger.Info().
		Int("modules", a.Coordinator.Modules().Count()).
		Dur("took", time.Since(start)).
		Msg("plugins loaded")
	return err
}

// Run loads the plugins, starts the introspection server and blocks until
// ctx is done, SIGINT/SIGTERM arrives or the server fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.Load(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("some plugins failed to register")
	}

	if a.Holder != nil {
		if err := a.Holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch unavailable")
		}
		a.Holder.WatchSignals()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting introspection server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		a.Logger.Info().Msg("context done, shutting down")
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown stops the server, the config watchers and the pruner and closes
// the journal.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.pruner != nil {
		a.pruner.Close()
	}

	var err error
	if a.DB != nil {
		if err = a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return err
}

// NewLogger builds the process logger from the logging section and sets the
// global level.
func NewLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
