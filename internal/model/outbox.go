package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
	OutboxStatusDead      OutboxStatus = "DEAD_LETTER"
)

// Event types written to the outbox.
const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventQuoteCreated         = "quote.created"
	EventQuoteAccepted        = "quote.accepted"
	EventLoyaltyAwarded       = "loyalty.awarded"
)

type OutboxEvent struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	EventType     string          `db:"event_type" json:"event_type"`
	AggregateType string          `db:"aggregate_type" json:"aggregate_type"`
	AggregateID   string          `db:"aggregate_id" json:"aggregate_id"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	Status        string          `db:"status" json:"status"`
	ErrorMessage  *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
	RetryCount    int             `db:"retry_count" json:"retry_count"`
	RetryAt       *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
}

// NewOutboxEvent builds a pending event with a JSON payload.
func NewOutboxEvent(eventType, aggregateType, aggregateID string, payload interface{}, now time.Time) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       body,
		Status:        string(OutboxStatusPending),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Aggregate types carried on outbox events.
const (
	AggregateBooking = "booking"
	AggregateQuote   = "quote"
	AggregateLoyalty = "loyalty"
)

type BookingCreatedPayload struct {
	BookingID   uuid.UUID  `json:"booking_id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	ServiceID   int64      `json:"service_id"`
	QuoteID     *uuid.UUID `json:"quote_id,omitempty"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	FinalPrice  int64      `json:"final_price"`
	Currency    string     `json:"currency"`
}

type BookingStatusChangedPayload struct {
	BookingID  uuid.UUID     `json:"booking_id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	From       BookingStatus `json:"from"`
	To         BookingStatus `json:"to"`
	Reason     *string       `json:"reason,omitempty"`
}

type QuoteCreatedPayload struct {
	QuoteID    uuid.UUID `json:"quote_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ServiceID  int64     `json:"service_id"`
	FinalPrice int64     `json:"final_price"`
	Currency   string    `json:"currency"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type QuoteAcceptedPayload struct {
	QuoteID    uuid.UUID `json:"quote_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
}

type LoyaltyAwardedPayload struct {
	CustomerID uuid.UUID `json:"customer_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Points     int64     `json:"points"`
}
