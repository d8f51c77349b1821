package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jwalitptl/cleaning-api/pkg/logger"
)

type QuoteExpirer interface {
	ExpireQuotes(ctx context.Context, now time.Time) (int64, error)
}

type OutboxCleaner interface {
	CleanupProcessed(ctx context.Context, retention time.Duration) (int64, error)
}

type SchedulerConfig struct {
	QuoteExpiry     string
	OutboxCleanup   string
	OutboxRetention time.Duration
	JobTimeout      time.Duration
}

// Scheduler runs the periodic maintenance jobs: expiring stale quotes and
// deleting processed outbox rows.
type Scheduler struct {
	cron   *cron.Cron
	quotes QuoteExpirer
	outbox OutboxCleaner
	config SchedulerConfig
	logger *logger.Logger
	now    func() time.Time
}

func NewScheduler(config SchedulerConfig, quotes QuoteExpirer, outbox OutboxCleaner, log *logger.Logger) (*Scheduler, error) {
	if config.JobTimeout <= 0 {
		config.JobTimeout = time.Minute
	}
	log = log.With("scheduler")
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		quotes: quotes,
		outbox: outbox,
		config: config,
		logger: log,
		now:    time.Now,
	}

	if _, err := s.cron.AddFunc(config.QuoteExpiry, s.expireQuotes); err != nil {
		return nil, fmt.Errorf("invalid quote expiry schedule %q: %w", config.QuoteExpiry, err)
	}
	if _, err := s.cron.AddFunc(config.OutboxCleanup, s.cleanupOutbox); err != nil {
		return nil, fmt.Errorf("invalid outbox cleanup schedule %q: %w", config.OutboxCleanup, err)
	}
	return s, nil
}

// Start runs the jobs until ctx is cancelled, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) expireQuotes() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()
	if _, err := s.quotes.ExpireQuotes(ctx, s.now()); err != nil {
		s.logger.Error(err, "quote expiry job failed")
	}
}

func (s *Scheduler) cleanupOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()
	if _, err := s.outbox.CleanupProcessed(ctx, s.config.OutboxRetention); err != nil {
		s.logger.Error(err, "outbox cleanup job failed")
	}
}
