package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/mira/ports"
	"github.com/rs/zerolog"
)

// Prunable is a journal that can drop old entries.
type Prunable interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// JournalPruner deletes journal entries older than the retention period on
// a fixed interval. A retention of zero keeps everything.
type JournalPruner struct {
	journal   Prunable
	clock     ports.Clock
	retention func() time.Duration
	interval  time.Duration
	logger    zerolog.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewJournalPruner starts a pruner. retention is read on every run so a
// reloaded configuration takes effect without a restart.
func NewJournalPruner(journal Prunable, clk ports.Clock, retention func() time.Duration, interval time.Duration, logger zerolog.Logger) *JournalPruner {
	if interval == 0 {
		interval = time.Hour
	}

	p := &JournalPruner{
		journal:   journal,
		clock:     clk,
		retention: retention,
		interval:  interval,
		logger:    logger.With().Str("component", "journal_pruner").Logger(),
		stopCh:    make(chan struct{}),
	}

	p.wg.Add(1)
	go p.loop()

	return p
}

// PruneNow prunes once and returns how many entries were removed.
func (p *JournalPruner) PruneNow(ctx context.Context) (int64, error) {
	keep := p.retention()
	if keep <= 0 {
		return 0, nil
	}

	cutoff := p.clock.Now().Add(-keep)
	n, err := p.journal.Prune(ctx, cutoff)
	if err != nil {
		p.logger.Error().Err(err).Msg("journal prune failed")
		return 0, err
	}
	if n > 0 {
		p.logger.Info().Int64("removed", n).Time("cutoff", cutoff).Msg("journal pruned")
	}
	return n, nil
}

func (p *JournalPruner) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			p.PruneNow(ctx)
			cancel()
		case <-p.stopCh:
			return
		}
	}
}

// Close stops the pruner. Safe to call twice.
func (p *JournalPruner) Close() error {
	p.closeOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
	})
	return nil
}
