package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/repository"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/messaging"
	redisbroker "github.com/jwalitptl/cleaning-api/pkg/messaging/redis"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

type Config struct {
	Channel string
	// PublishAttempts bounds the in-process retries of one publish before the
	// event is left for a later poll.
	PublishAttempts uint64
	MaxRetries      int
	RetryDelay      time.Duration
}

type Service struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  Config
	metrics *metrics.Metrics
	log     *logger.Logger
	backoff func() backoff.BackOff
	now     func() time.Time
}

func NewService(repo repository.OutboxRepository, broker messaging.Broker, config Config, m *metrics.Metrics, log *logger.Logger) *Service {
	if config.PublishAttempts == 0 {
		config.PublishAttempts = 3
	}
	return &Service{
		repo:    repo,
		broker:  broker,
		config:  config,
		metrics: m,
		log:     log.With("outbox"),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		now: time.Now,
	}
}

// ProcessPending publishes up to limit due events and records the outcome of
// each on its outbox row.
func (s *Service) ProcessPending(ctx context.Context, limit int) (repository.ProcessResult, error) {
	start := s.now()
	policy := repository.RetryPolicy{MaxRetries: s.config.MaxRetries, Delay: s.config.RetryDelay}

	res, err := s.repo.ProcessPending(ctx, limit, policy, s.publish)
	if err != nil {
		return res, fmt.Errorf("failed to process pending events: %w", err)
	}
	s.metrics.OutboxProcessingLatency.Observe(s.now().Sub(start).Seconds())
	s.metrics.OutboxEventsProcessed.Add(float64(res.Processed))
	s.metrics.OutboxEventsFailed.Add(float64(res.Failed))
	s.metrics.OutboxEventsDead.Add(float64(res.DeadLetter))

	if res.DeadLetter > 0 {
		s.log.Warn("outbox events moved to dead letter", "count", res.DeadLetter)
	}
	if res.Processed+res.Failed > 0 {
		s.log.Debug("outbox batch done", "processed", res.Processed, "failed", res.Failed)
	}
	return res, nil
}

func (s *Service) publish(ctx context.Context, ev *model.OutboxEvent) error {
	env := messaging.Envelope{
		ID:            ev.ID,
		Type:          ev.EventType,
		AggregateType: ev.AggregateType,
		AggregateID:   ev.AggregateID,
		Payload:       ev.Payload,
		OccurredAt:    ev.CreatedAt,
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(s.backoff(), s.config.PublishAttempts-1), ctx)

	err := backoff.Retry(func() error {
		err := s.broker.Publish(ctx, s.config.Channel, env)
		if err != nil && redisbroker.IsBreakerOpen(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		s.log.Warn("failed to publish outbox event",
			"event_id", ev.ID.String(),
			"event_type", ev.EventType,
			"retry_count", ev.RetryCount,
			"error", err.Error())
		return err
	}
	return nil
}

// CleanupProcessed deletes processed events older than retention.
func (s *Service) CleanupProcessed(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.repo.DeleteProcessedBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up outbox: %w", err)
	}
	if n > 0 {
		s.log.Info("processed outbox events deleted", "count", n)
	}
	return n, nil
}
