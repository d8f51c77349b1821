package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/repository"
)

const quoteColumns = `id, customer_id, service_id, status, final_price, currency, pricing_breakdown,
	expires_at, accepted_booking_id, created_at, updated_at`

func (r *quoteRepository) Create(ctx context.Context, quote *model.Quote, events ...*model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO quotes (
				id, customer_id, service_id, status, final_price, currency,
				pricing_breakdown, expires_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		_, err := tx.ExecContext(ctx, query,
			quote.ID,
			quote.CustomerID,
			quote.ServiceID,
			quote.Status,
			quote.FinalPrice,
			quote.Currency,
			string(quote.PricingBreakdown),
			quote.ExpiresAt,
			quote.CreatedAt,
			quote.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create quote: %w", mapError(err))
		}
		return insertOutboxEvents(ctx, tx, events)
	})
}

func (r *quoteRepository) Get(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var quote model.Quote
	err := r.db.GetContext(ctx, &quote, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote %s: %w", id, mapError(err))
	}
	return &quote, nil
}

func (r *quoteRepository) List(ctx context.Context, filters model.QuoteFilters) ([]*model.Quote, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters.CustomerID != nil {
		args = append(args, *filters.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM quotes`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count quotes: %w", err)
	}

	query := `SELECT ` + quoteColumns + ` FROM quotes` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filters.Limit, filters.Offset)

	var quotes []*model.Quote
	if err := r.db.SelectContext(ctx, &quotes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, total, nil
}

func (r *quoteRepository) Accept(
	ctx context.Context,
	quoteID uuid.UUID,
	booking *model.Booking,
	now time.Time,
	events ...*model.OutboxEvent,
) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE quotes
			SET status = $1, accepted_booking_id = $2, updated_at = $3
			WHERE id = $4 AND status = $5 AND expires_at > $3
		`, model.QuoteStatusAccepted, booking.ID, now, quoteID, model.QuoteStatusOpen)
		if err != nil {
			return fmt.Errorf("failed to accept quote: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("quote %s is not open: %w", quoteID, repository.ErrConflict)
		}
		if err := insertBooking(ctx, tx, booking); err != nil {
			return err
		}
		return insertOutboxEvents(ctx, tx, events)
	})
}

func (r *quoteRepository) ExpireOpen(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE quotes SET status = $1, updated_at = $2
		WHERE status = $3 AND expires_at <= $2
	`, model.QuoteStatusExpired, now, model.QuoteStatusOpen)
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", err)
	}
	return res.RowsAffected()
}
