package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/cleaning-api/internal/model"
)

func (r *loyaltyRepository) Award(ctx context.Context, entry *model.LoyaltyEntry, events ...*model.OutboxEvent) (bool, error) {
	var inserted bool
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inserted, err = insertLedgerEntry(ctx, tx, entry)
		if err != nil || !inserted {
			return err
		}
		return insertOutboxEvents(ctx, tx, events)
	})
	return inserted, err
}

// insertLedgerEntry reports false when the booking already has a ledger row.
func insertLedgerEntry(ctx context.Context, tx *sqlx.Tx, entry *model.LoyaltyEntry) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO loyalty_ledger (id, customer_id, booking_id, points, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (booking_id) DO NOTHING
	`, entry.ID, entry.CustomerID, entry.BookingID, entry.Points, entry.Reason, entry.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to award loyalty points: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *loyaltyRepository) Balance(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance,
		`SELECT COALESCE(SUM(points), 0) FROM loyalty_ledger WHERE customer_id = $1`, customerID)
	if err != nil {
		return 0, fmt.Errorf("failed to get loyalty balance: %w", err)
	}
	return balance, nil
}

func (r *loyaltyRepository) History(ctx context.Context, customerID uuid.UUID, limit int) ([]*model.LoyaltyEntry, error) {
	var entries []*model.LoyaltyEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, customer_id, booking_id, points, reason, created_at
		FROM loyalty_ledger
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get loyalty history: %w", err)
	}
	return entries, nil
}
