package bootstrap

import (
	"context"

	"github.com/artpar/mira/core/coordinator"
	"github.com/rs/zerolog"
)

// RegisterFinishHooks adds the application's finish hooks to c. They run
// after the built-in freeze hooks, once every plugin was processed.
func RegisterFinishHooks(c *coordinator.Coordinator, pruner *JournalPruner, logger zerolog.Logger) error {
	if err := c.OnFinish("log_summary", logSummary(c, logger)); err != nil {
		return err
	}

	if pruner != nil {
		// old runs' diagnostics would otherwise linger until the first tick
		err := c.OnFinish("journal.prune", func(ctx context.Context) error {
			_, err := pruner.PruneNow(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	logger.Debug().Msg("finish hooks registered")
	return nil
}

func logSummary(c *coordinator.Coordinator, logger zerolog.Logger) coordinator.FinishHook {
	return func(context.Context) error {
		ev := logger.Info().
			Int("modules", c.Modules().Count()).
			Int("event_kinds", len(c.Bus().Kinds())).
			Int("handlers", c.Bus().HandlerCount())

		if caps := c.Capabilities(); caps != nil {
			s := caps.Summary()
			ev = ev.Int("roles", s.Roles).
				Int("modifiers", s.Modifiers).
				Int("options", s.Options).
				Int("buttons", s.Buttons).
				Int("game_modes", s.GameModes).
				Int("colors", s.Colors)
		}
		ev.Msg("registration summary")

		if diags := c.Diagnostics(); len(diags) > 0 {
			logger.Warn().Int("diagnostics", len(diags)).Msg("some declarations were rejected, see the diagnostic journal")
		}
		return nil
	}
}
