package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/repository"
)

const outboxColumns = `id, event_type, aggregate_type, aggregate_id, payload, status, error_message,
	retry_count, retry_at, processed_at, created_at, updated_at`

// insertOutboxEvents writes events inside the caller's transaction.
func insertOutboxEvents(ctx context.Context, tx sqlx.ExecerContext, events []*model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (
			id, event_type, aggregate_type, aggregate_id, payload, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, event := range events {
		if event == nil {
			continue
		}
		if event.Payload == nil {
			return fmt.Errorf("event payload cannot be nil")
		}
		if event.Status == "" {
			event.Status = string(model.OutboxStatusPending)
		}
		_, err := tx.ExecContext(ctx, query,
			event.ID,
			event.EventType,
			event.AggregateType,
			event.AggregateID,
			string(event.Payload),
			event.Status,
			event.CreatedAt,
			event.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
	}
	return nil
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	return insertOutboxEvents(ctx, r.db, []*model.OutboxEvent{event})
}

func (r *outboxRepository) ProcessPending(
	ctx context.Context,
	limit int,
	policy repository.RetryPolicy,
	publish func(context.Context, *model.OutboxEvent) error,
) (repository.ProcessResult, error) {
	var result repository.ProcessResult
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT ` + outboxColumns + `
			FROM outbox_events
			WHERE status IN ('PENDING', 'FAILED')
			AND (retry_at IS NULL OR retry_at <= NOW())
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`
		var events []*model.OutboxEvent
		if err := tx.SelectContext(ctx, &events, query, limit); err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}

		for _, event := range events {
			if pubErr := publish(ctx, event); pubErr != nil {
				dead, err := markFailed(ctx, tx, event, pubErr, policy)
				if err != nil {
					return err
				}
				if dead {
					result.DeadLetter++
				} else {
					result.Failed++
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE outbox_events
				SET status = $1, error_message = NULL, processed_at = NOW(), updated_at = NOW()
				WHERE id = $2
			`, string(model.OutboxStatusProcessed), event.ID); err != nil {
				return fmt.Errorf("failed to mark event processed: %w", err)
			}
			result.Processed++
		}
		return nil
	})
	return result, err
}

func markFailed(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent, cause error, policy repository.RetryPolicy) (bool, error) {
	event.RetryCount++
	msg := cause.Error()
	retryAt, dead := policy.NextAttempt(time.Now(), event.RetryCount)

	status := model.OutboxStatusFailed
	var next *time.Time
	if dead {
		status = model.OutboxStatusDead
	} else {
		next = &retryAt
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, error_message = $2, retry_count = $3, retry_at = $4, updated_at = NOW()
		WHERE id = $5
	`, string(status), msg, event.RetryCount, next, event.ID)
	if err != nil {
		return false, fmt.Errorf("failed to mark event failed: %w", err)
	}
	return dead, nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = 'PROCESSED'
		AND processed_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}
