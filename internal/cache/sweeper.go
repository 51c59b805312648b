package cache

import (
	"context"

	"github.com/rs/zerolog"
)

// DefaultSweepSchedule is the cron spec of the periodic expiry sweep.
const DefaultSweepSchedule = "@every 10m"

// Sweeper evicts expired entries so entries nobody reads again do not
// accumulate.
type Sweeper struct {
	cache *TenantCache
	log   zerolog.Logger
}

// NewSweeper creates a sweeper for c.
func NewSweeper(c *TenantCache, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		cache: c,
		log:   log.With().Str("component", "cache_sweeper").Logger(),
	}
}

// Name implements scheduler.Job.
func (s *Sweeper) Name() string {
	return "cache_sweep"
}

// Run implements scheduler.Job.
func (s *Sweeper) Run(_ context.Context) error {
	evicted := s.cache.Cleanup()
	if evicted > 0 {
		stats := s.cache.Stats()
		s.log.Debug().
			Int("evicted", evicted).
			Int("entries", stats.Entries).
			Int("approx_bytes", stats.ApproxBytes).
			Msg("Evicted expired cache entries")
	}
	return nil
}
