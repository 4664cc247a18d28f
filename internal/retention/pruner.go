package retention

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/omriShneor/clarity/internal/logging"
)

// Store removes sessions that have been idle since a cutoff
type Store interface {
	DeleteSessionsInactiveSince(cutoff time.Time) (int64, error)
}

// Pruner periodically deletes chat sessions with no recent messages
type Pruner struct {
	store  Store
	maxAge time.Duration
	now    func() time.Time
	logger zerolog.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewPruner creates a pruner removing sessions idle for more than days
func NewPruner(store Store, days int) *Pruner {
	return &Pruner{
		store:  store,
		maxAge: time.Duration(days) * 24 * time.Hour,
		now:    time.Now,
		logger: logging.For("retention"),
	}
}

// PruneOnce deletes idle sessions and returns how many were removed
func (p *Pruner) PruneOnce() (int64, error) {
	if p.maxAge <= 0 {
		return 0, nil
	}

	cutoff := p.now().Add(-p.maxAge)
	removed, err := p.store.DeleteSessionsInactiveSince(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}

	if removed > 0 {
		p.logger.Info().Int64("sessions", removed).Time("cutoff", cutoff).Msg("pruned idle sessions")
	}
	return removed, nil
}

// Start runs PruneOnce on a cron schedule such as "@hourly" or "0 3 * * *"
func (p *Pruner) Start(schedule string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scheduler != nil {
		return fmt.Errorf("pruner already started")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() {
		if _, err := p.PruneOnce(); err != nil {
			p.logger.Error().Err(err).Msg("scheduled prune failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	scheduler.Start()
	p.scheduler = scheduler
	p.logger.Info().Str("schedule", schedule).Dur("max_age", p.maxAge).Msg("session pruner started")
	return nil
}

// Stop halts the schedule and waits for a running prune to finish
func (p *Pruner) Stop() {
	p.mu.Lock()
	scheduler := p.scheduler
	p.scheduler = nil
	p.mu.Unlock()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
}
