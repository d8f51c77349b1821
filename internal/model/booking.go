package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Completed and cancelled bookings are final.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking carries the breakdown computed when it was created. FinalPrice
// mirrors the breakdown's final price and is kept as a column for listing.
type Booking struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	CustomerID       uuid.UUID       `db:"customer_id" json:"customer_id"`
	ServiceID        int64           `db:"service_id" json:"service_id"`
	QuoteID          *uuid.UUID      `db:"quote_id" json:"quote_id,omitempty"`
	Status           BookingStatus   `db:"status" json:"status"`
	ScheduledAt      time.Time       `db:"scheduled_at" json:"scheduled_at"`
	Address          string          `db:"address" json:"address"`
	Notes            string          `db:"notes" json:"notes,omitempty"`
	FinalPrice       int64           `db:"final_price" json:"final_price"`
	Currency         string          `db:"currency" json:"currency"`
	PricingBreakdown json.RawMessage `db:"pricing_breakdown" json:"pricing_breakdown"`
	CancelReason     *string         `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

type CreateBookingRequest struct {
	PriceRequest
	CustomerID  uuid.UUID `json:"customer_id" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Address     string    `json:"address" validate:"required,max=500"`
	Notes       string    `json:"notes" validate:"max=1000"`
}

type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=confirmed completed cancelled"`
	Reason string        `json:"reason" validate:"max=500"`
}

type BookingFilters struct {
	CustomerID *uuid.UUID
	Status     BookingStatus
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
