package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/repository"
)

const bookingColumns = `id, customer_id, service_id, quote_id, status, scheduled_at, address, notes,
	final_price, currency, pricing_breakdown, cancel_reason, created_at, updated_at`

func insertBooking(ctx context.Context, tx sqlx.ExecerContext, b *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, customer_id, service_id, quote_id, status, scheduled_at, address, notes,
			final_price, currency, pricing_breakdown, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := tx.ExecContext(ctx, query,
		b.ID,
		b.CustomerID,
		b.ServiceID,
		b.QuoteID,
		b.Status,
		b.ScheduledAt,
		b.Address,
		b.Notes,
		b.FinalPrice,
		b.Currency,
		string(b.PricingBreakdown),
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", mapError(err))
	}
	return nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking, events ...*model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertBooking(ctx, tx, booking); err != nil {
			return err
		}
		return insertOutboxEvents(ctx, tx, events)
	})
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %s: %w", id, mapError(err))
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, filters model.BookingFilters) ([]*model.Booking, int, error) {
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
	if filters.From != nil {
		args = append(args, *filters.From)
		conds = append(conds, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		conds = append(conds, fmt.Sprintf("scheduled_at < $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where +
		fmt.Sprintf(" ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filters.Limit, filters.Offset)

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}

func (r *bookingRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to model.BookingStatus,
	reason *string,
	award *model.LoyaltyAward,
	events ...*model.OutboxEvent,
) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE bookings
			SET status = $1, cancel_reason = COALESCE($2, cancel_reason), updated_at = NOW()
			WHERE id = $3 AND status = $4
		`, to, reason, id, from)
		if err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("booking %s is no longer %s: %w", id, from, repository.ErrConflict)
		}
		if award != nil {
			inserted, err := insertLedgerEntry(ctx, tx, award.Entry)
			if err != nil {
				return err
			}
			if inserted && award.Event != nil {
				events = append(events, award.Event)
			}
		}
		return insertOutboxEvents(ctx, tx, events)
	})
}
