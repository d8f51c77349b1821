package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type QuoteStatus string

const (
	QuoteStatusOpen     QuoteStatus = "open"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// Quote is a priced offer a customer can turn into a booking until it
// expires. The breakdown is frozen at creation time.
type Quote struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	CustomerID        uuid.UUID       `db:"customer_id" json:"customer_id"`
	ServiceID         int64           `db:"service_id" json:"service_id"`
	Status            QuoteStatus     `db:"status" json:"status"`
	FinalPrice        int64           `db:"final_price" json:"final_price"`
	Currency          string          `db:"currency" json:"currency"`
	PricingBreakdown  json.RawMessage `db:"pricing_breakdown" json:"pricing_breakdown"`
	ExpiresAt         time.Time       `db:"expires_at" json:"expires_at"`
	AcceptedBookingID *uuid.UUID      `db:"accepted_booking_id" json:"accepted_booking_id,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// IsAcceptable reports whether the quote can still become a booking at now.
func (q *Quote) IsAcceptable(now time.Time) bool {
	return q.Status == QuoteStatusOpen && now.Before(q.ExpiresAt)
}

type CreateQuoteRequest struct {
	PriceRequest
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
}

type AcceptQuoteRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Address     string    `json:"address" validate:"required,max=500"`
	Notes       string    `json:"notes" validate:"max=1000"`
}

type QuoteFilters struct {
	CustomerID *uuid.UUID
	Status     QuoteStatus
	Limit      int
	Offset     int
}
