package loader

import (
	"context"
	"errors"

	"github.com/artpar/mira/core/coordinator"
	"github.com/rs/zerolog"
)

// Loader emits module-loaded notifications for catalog plugins.
type Loader struct {
	catalog  *Catalog
	manifest *Manifest
	logger   zerolog.Logger
}

// New creates a loader. A nil manifest loads the whole catalog in
// registration order.
func New(catalog *Catalog, manifest *Manifest, logger zerolog.Logger) *Loader {
	return &Loader{
		catalog:  catalog,
		manifest: manifest,
		logger:   logger.With().Str("component", "loader").Logger(),
	}
}

// Plan returns the GUIDs that Start will load, in order. GUIDs named by the
// manifest but missing from the catalog are reported as an error alongside
// the plan without them.
func (l *Loader) Plan() ([]string, error) {
	if l.manifest == nil {
		return l.catalog.GUIDs(), nil
	}

	var (
		plan []string
		errs []error
	)
	for _, guid := range l.manifest.Enabled() {
		if _, err := l.catalog.Get(guid); err != nil {
			errs = append(errs, err)
			continue
		}
		plan = append(plan, guid)
	}
	return plan, errors.Join(errs...)
}

// Start instantiates the planned plugins on a goroutine and sends one
// notification per plugin. The channel is closed once every plugin was
// sent or ctx is done.
func (l *Loader) Start(ctx context.Context) <-chan coordinator.Loaded {
	plan, err := l.Plan()
	if err != nil {
		l.logger.Warn().Err(err).Msg("skipping plugins missing from the catalog")
	}

	ch := make(chan coordinator.Loaded)
	go func() {
		defer close(ch)

		for _, guid := range plan {
			f, err := l.catalog.Get(guid)
			if err != nil {
				continue
			}

			l.logger.Debug().Str("plugin", guid).Msg("loading plugin")
			select {
			case ch <- coordinator.Loaded{Source: "catalog:" + guid, Value: f()}:
			case <-ctx.Done():
				l.logger.Warn().Err(ctx.Err()).Msg("plugin loading interrupted")
				return
			}
		}

		l.logger.Info().Int("plugins", len(plan)).Msg("plugin loading finished")
	}()
	return ch
}
