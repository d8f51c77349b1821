package model

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltyEntry is one ledger row. There is at most one per booking.
type LoyaltyEntry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	BookingID  uuid.UUID `db:"booking_id" json:"booking_id"`
	Points     int64     `db:"points" json:"points"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type LoyaltySummary struct {
	CustomerID uuid.UUID      `json:"customer_id"`
	Balance    int64          `json:"balance"`
	History    []LoyaltyEntry `json:"history"`
}

// LoyaltyAward is a ledger row and the event announcing it. They are written
// in the same transaction as the status change that earned them.
type LoyaltyAward struct {
	Entry *LoyaltyEntry
	Event *OutboxEvent
}
