package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
)

// refreshScheduler re-resolves live symbols on fixed intervals. Each entry
// runs under SkipIfStillRunning so a slow cycle is skipped rather than
// stacked, and every cycle starts with a random jitter so the providers
// never see synchronized bursts.
type refreshScheduler struct {
	cron   *cron.Cron
	logger *common.Logger
}

// cronLogger adapts common.Logger to the cron.Logger interface.
type cronLogger struct {
	logger *common.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Str("detail", fmt.Sprint(keysAndValues...)).Msg("Scheduler: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Str("detail", fmt.Sprint(keysAndValues...)).Msg("Scheduler: " + msg)
}

func startRefreshScheduler(seriesService interfaces.SeriesService, cfg common.RefreshConfig, logger *common.Logger) *refreshScheduler {
	cl := cronLogger{logger: logger}
	c := cron.New(cron.WithChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	))

	jitter := cfg.GetJitter()

	addCycle := func(name string, interval time.Duration, keys []string) {
		if len(keys) == 0 {
			return
		}
		spec := fmt.Sprintf("@every %s", interval)
		_, err := c.AddFunc(spec, func() {
			refreshCycle(name, keys, jitter, seriesService, logger)
		})
		if err != nil {
			logger.Error().Err(err).Str("cycle", name).Msg("Failed to schedule refresh cycle")
			return
		}
		logger.Info().
			Str("cycle", name).
			Dur("interval", interval).
			Int("keys", len(keys)).
			Msg("Refresh cycle scheduled")
	}

	addCycle("quotes", cfg.GetQuoteInterval(), cfg.Symbols)
	addCycle("watchlist", cfg.GetWatchlistInterval(), cfg.Watchlist)

	c.Start()
	return &refreshScheduler{cron: c, logger: logger}
}

func refreshCycle(name string, keys []string, jitter time.Duration, seriesService interfaces.SeriesService, logger *common.Logger) {
	if jitter > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(jitter))))
	}

	start := time.Now()
	seriesService.Refresh(context.Background(), keys)

	logger.Info().
		Str("cycle", name).
		Int("keys", len(keys)).
		Dur("elapsed", time.Since(start)).
		Msg("Refresh cycle complete")
}

// Stop halts the scheduler, waiting for a running cycle to finish.
func (s *refreshScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Refresh scheduler stopped")
}
