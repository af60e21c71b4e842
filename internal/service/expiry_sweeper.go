package service

import (
	"context"
	"fmt"

	"github.com/lshigami/examcore/config"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ExpirySweeper periodically bulk-expires overdue in-progress attempts.
// Lazy expiry on access stays authoritative; the sweep only cleans up.
type ExpirySweeper struct {
	attempts AttemptService
	spec     string
	cron     *cron.Cron
}

func NewExpirySweeper(cfg *config.Config, attempts AttemptService) *ExpirySweeper {
	return &ExpirySweeper{
		attempts: attempts,
		spec:     cfg.Attempts.ExpirySweepSpec,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// RunOnce performs one sweep. Re-running it is a no-op for rows already
// expired.
func (w *ExpirySweeper) RunOnce(ctx context.Context) {
	n, err := w.attempts.ExpireOverdue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Expiry sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int64("expired", n).Msg("Expiry sweep flipped overdue attempts")
	}
}

func (w *ExpirySweeper) Start() error {
	if _, err := w.cron.AddFunc(w.spec, func() { w.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("schedule expiry sweep %q: %w", w.spec, err)
	}
	w.cron.Start()
	log.Info().Str("spec", w.spec).Msg("Expiry sweeper started")
	return nil
}

// Stop waits for a running sweep to finish or ctx to end.
func (w *ExpirySweeper) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	log.Info().Msg("Expiry sweeper stopped")
}
