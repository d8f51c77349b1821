package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/cleaning-api/internal/repository"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
)

// EventProcessor publishes one batch of due outbox events.
type EventProcessor interface {
	ProcessPending(ctx context.Context, limit int) (repository.ProcessResult, error)
}

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

type OutboxProcessor struct {
	events EventProcessor
	config OutboxProcessorConfig
	logger *logger.Logger
}

func NewOutboxProcessor(events EventProcessor, config OutboxProcessorConfig, logger *logger.Logger) (*OutboxProcessor, error) {
	if config.BatchSize <= 0 {
		return nil, errors.New("batch size must be greater than 0")
	}
	if config.PollInterval <= 0 {
		return nil, errors.New("poll interval must be greater than 0")
	}
	return &OutboxProcessor{
		events: events,
		config: config,
		logger: logger.With("outbox_processor"),
	}, nil
}

// Start polls until ctx is cancelled. A full batch is followed immediately by
// another poll so a backlog drains without waiting for the ticker.
func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor", "batch_size", p.config.BatchSize, "poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *OutboxProcessor) drain(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := p.events.ProcessPending(ctx, p.config.BatchSize)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				p.logger.Error(err, "Failed to process events")
			}
			return
		}
		if res.Processed+res.Failed+res.DeadLetter < p.config.BatchSize {
			return
		}
	}
}
