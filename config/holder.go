package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Holder keeps the current configuration and swaps it on reload. Reloads
// are triggered explicitly, by writes to the file or by SIGHUP.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	onChange []func(*Config)
	onReload []func(error)

	reloadMu sync.Mutex // serializes Reload

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHolder loads path and returns a holder for it. The file must exist.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Holder{
		config: cfg,
		path:   abs,
		logger: logger.With().Str("component", "config").Logger(),
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current configuration. Callers must not modify it.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Path returns the absolute path of the config file.
func (h *Holder) Path() string {
	return h.path
}

// OnChange registers fn to run with the new configuration after every
// successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnReload registers fn to run after every reload attempt with its outcome.
func (h *Holder) OnReload(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onReload = append(h.onReload, fn)
}

// Reload re-reads the file. An invalid file leaves the current
// configuration in place and is returned as an error.
func (h *Holder) Reload() error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping previous config")
		h.notifyReload(err)
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.config
	h.config = next
	changed := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	h.logDiff(prev, next)
	for _, fn := range changed {
		fn(next)
	}
	h.notifyReload(nil)

	h.logger.Info().Msg("configuration reloaded")
	return nil
}

func (h *Holder) notifyReload(err error) {
	h.mu.RLock()
	fns := append([]func(error){}, h.onReload...)
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(err)
	}
}

// WatchFile reloads whenever the config file is written or replaced.
func (h *Holder) WatchFile() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// atomic saves replace the file, so the directory is watched
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(h.path), err)
	}
	h.watcher = w

	name := filepath.Base(h.path)
	go h.loop(func(trigger chan<- string) {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) == name && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					trigger <- "file " + ev.Op.String()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				h.logger.Error().Err(err).Msg("file watcher error")
			case <-h.stopCh:
				return
			}
		}
	})

	h.logger.Info().Str("path", h.path).Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP.
func (h *Holder) WatchSignals() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)

	go h.loop(func(trigger chan<- string) {
		defer signal.Stop(sig)
		for {
			select {
			case <-sig:
				trigger <- "SIGHUP"
			case <-h.stopCh:
				return
			}
		}
	})
}

// loop runs source and reloads once per trigger until Stop.
func (h *Holder) loop(source func(trigger chan<- string)) {
	trigger := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		source(trigger)
	}()

	for {
		select {
		case why := <-trigger:
			h.logger.Debug().Str("trigger", why).Msg("config reload requested")
			if err := h.Reload(); err != nil {
				h.logger.Error().Err(err).Str("trigger", why).Msg("config reload failed")
			}
		case <-done:
			return
		}
	}
}

// Stop ends file and signal watching. Safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) logDiff(prev, next *Config) {
	if prev.Logging.Level != next.Logging.Level {
		h.logger.Info().
			Str("old", prev.Logging.Level).
			Str("new", next.Logging.Level).
			Msg("log level changed")
	}
	if prev.Journal.Retention != next.Journal.Retention {
		h.logger.Info().
			Dur("old", prev.Journal.Retention).
			Dur("new", next.Journal.Retention).
			Msg("journal retention changed")
	}

	for _, f := range restartOnly {
		if f.changed(prev, next) {
			h.logger.Warn().Str("field", f.name).Msg("change takes effect after restart")
		}
	}
}

// restartOnly lists the settings that are read once at startup.
var restartOnly = []struct {
	name    string
	changed func(a, b *Config) bool
}{
	{"logging.format", func(a, b *Config) bool { return a.Logging.Format != b.Logging.Format }},
	{"plugins.manifest", func(a, b *Config) bool { return a.Plugins.Manifest != b.Plugins.Manifest }},
	{"journal.enabled", func(a, b *Config) bool { return a.Journal.Enabled != b.Journal.Enabled }},
	{"journal.dsn", func(a, b *Config) bool { return a.Journal.DSN != b.Journal.DSN }},
	{"http.host", func(a, b *Config) bool { return a.HTTP.Host != b.HTTP.Host }},
	{"http.port", func(a, b *Config) bool { return a.HTTP.Port != b.HTTP.Port }},
	{"http.docs", func(a, b *Config) bool { return a.HTTP.Docs != b.HTTP.Docs }},
	{"metrics.enabled", func(a, b *Config) bool { return a.Metrics.Enabled != b.Metrics.Enabled }},
	{"metrics.path", func(a, b *Config) bool { return a.Metrics.Path != b.Metrics.Path }},
}

// ReloadableFields returns the settings applied without a restart.
func ReloadableFields() []string {
	return []string{"logging.level", "journal.retention"}
}

// NonReloadableFields returns the settings that need a restart.
func NonReloadableFields() []string {
	names := make([]string, len(restartOnly))
	for i, f := range restartOnly {
		names[i] = f.name
	}
	return names
}
