package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/cleaning-api/config"
	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/pricing"
	"github.com/jwalitptl/cleaning-api/internal/repository"
	"github.com/jwalitptl/cleaning-api/internal/service/price"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

type BookingServicer interface {
	CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*BookingDetail, error)
	ListBookings(ctx context.Context, filters model.BookingFilters) ([]*model.Booking, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateBookingStatusRequest) (*model.Booking, error)
}

// LoyaltyAwarder builds the ledger entry a completed booking earns.
type LoyaltyAwarder interface {
	NewAward(b *model.Booking) (*model.LoyaltyAward, error)
}

// BookingDetail is a booking with its decoded breakdown.
type BookingDetail struct {
	*model.Booking
	Breakdown *pricing.Breakdown `json:"breakdown"`
}

type Service struct {
	repo    repository.BookingRepository
	pricer  price.PriceServicer
	loyalty LoyaltyAwarder
	cfg     config.PricingConfig
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewService(
	repo repository.BookingRepository,
	pricer price.PriceServicer,
	loyalty LoyaltyAwarder,
	cfg config.PricingConfig,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:    repo,
		pricer:  pricer,
		loyalty: loyalty,
		cfg:     cfg,
		metrics: m,
		log:     log.With("booking"),
		now:     time.Now,
	}
}

// ValidateSchedule checks that a visit is far enough ahead of now and not
// further out than bookings are taken.
func ValidateSchedule(cfg config.PricingConfig, at, now time.Time) error {
	if at.Before(now.Add(cfg.MinAdvanceBooking)) {
		return apperrors.BadRequest(
			fmt.Sprintf("scheduled_at must be at least %s in the future", cfg.MinAdvanceBooking), nil)
	}
	if cfg.MaxAdvanceBooking > 0 && at.After(now.Add(cfg.MaxAdvanceBooking)) {
		return apperrors.BadRequest(
			fmt.Sprintf("scheduled_at must be within %s", cfg.MaxAdvanceBooking), nil)
	}
	return nil
}

// NewPendingBooking builds a booking around an already stored breakdown. The
// raw JSON is kept verbatim and the final price is read from it.
func NewPendingBooking(customerID uuid.UUID, serviceID int64, raw json.RawMessage, scheduledAt time.Time, address, notes string, now time.Time) (*model.Booking, error) {
	b, err := DecodeStored(raw)
	if err != nil {
		return nil, err
	}
	return &model.Booking{
		ID:               uuid.New(),
		CustomerID:       customerID,
		ServiceID:        serviceID,
		Status:           model.BookingStatusPending,
		ScheduledAt:      scheduledAt.UTC(),
		Address:          address,
		Notes:            notes,
		FinalPrice:       int64(b.FinalPrice),
		Currency:         b.Currency,
		PricingBreakdown: raw,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// DecodeStored reads a persisted breakdown. A breakdown that fails
// verification means stored data was corrupted, which is an internal error.
func DecodeStored(raw json.RawMessage) (*pricing.Breakdown, error) {
	b, err := pricing.DecodeBreakdown(raw)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("stored pricing breakdown is invalid: %w", err))
	}
	return b, nil
}

func (s *Service) CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	now := s.now().UTC()
	if err := ValidateSchedule(s.cfg, req.ScheduledAt, now); err != nil {
		return nil, err
	}

	breakdown, err := s.pricer.Price(ctx, req.PriceRequest.ToInput())
	if err != nil {
		return nil, err
	}
	raw, err := breakdown.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode pricing breakdown: %w", err)
	}

	booking, err := NewPendingBooking(req.CustomerID, req.ServiceID, raw, req.ScheduledAt, req.Address, req.Notes, now)
	if err != nil {
		return nil, err
	}
	event, err := CreatedEvent(booking, now)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, booking, event); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.metrics.BookingsCreated.WithLabelValues("direct").Inc()
	s.log.Info("booking created",
		"booking_id", booking.ID.String(),
		"service_id", booking.ServiceID,
		"final_price", booking.FinalPrice)
	return booking, nil
}

// CreatedEvent builds the booking.created outbox event.
func CreatedEvent(b *model.Booking, now time.Time) (*model.OutboxEvent, error) {
	event, err := model.NewOutboxEvent(model.EventBookingCreated, model.AggregateBooking, b.ID.String(),
		model.BookingCreatedPayload{
			BookingID:   b.ID,
			CustomerID:  b.CustomerID,
			ServiceID:   b.ServiceID,
			QuoteID:     b.QuoteID,
			ScheduledAt: b.ScheduledAt,
			FinalPrice:  b.FinalPrice,
			Currency:    b.Currency,
		}, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build booking event: %w", err)
	}
	return event, nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*BookingDetail, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking", err)
		}
		return nil, err
	}
	breakdown, err := DecodeStored(booking.PricingBreakdown)
	if err != nil {
		s.log.Error(err, "stored breakdown failed verification", "booking_id", id.String())
		return nil, err
	}
	return &BookingDetail{Booking: booking, Breakdown: breakdown}, nil
}

func (s *Service) ListBookings(ctx context.Context, filters model.BookingFilters) ([]*model.Booking, int, error) {
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, 0, apperrors.BadRequest("'to' must not be before 'from'", nil)
	}
	return s.repo.List(ctx, filters)
}

// UpdateStatus moves a booking along its lifecycle. Completing a booking
// credits loyalty points in the same transaction, so either both are stored
// or neither is.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateBookingStatusRequest) (*model.Booking, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking", err)
		}
		return nil, err
	}
	from := booking.Status
	if !from.CanTransitionTo(req.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move booking from %s to %s", from, req.Status), nil)
	}

	var reason *string
	if req.Reason != "" {
		r := req.Reason
		reason = &r
	}
	now := s.now().UTC()
	event, err := model.NewOutboxEvent(model.EventBookingStatusChanged, model.AggregateBooking, id.String(),
		model.BookingStatusChangedPayload{
			BookingID:  id,
			CustomerID: booking.CustomerID,
			From:       from,
			To:         req.Status,
			Reason:     reason,
		}, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build booking event: %w", err)
	}

	var cancelReason *string
	if req.Status == model.BookingStatusCancelled {
		cancelReason = reason
	}
	var award *model.LoyaltyAward
	if req.Status == model.BookingStatusCompleted && s.loyalty != nil {
		completed := *booking
		completed.Status = req.Status
		if award, err = s.loyalty.NewAward(&completed); err != nil {
			return nil, fmt.Errorf("failed to build loyalty award: %w", err)
		}
	}
	if err := s.repo.UpdateStatus(ctx, id, from, req.Status, cancelReason, award, event); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("booking status changed concurrently", err)
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	booking.Status = req.Status
	booking.UpdatedAt = now
	if cancelReason != nil {
		booking.CancelReason = cancelReason
	}
	s.metrics.BookingTransitions.WithLabelValues(string(req.Status)).Inc()
	if award != nil {
		s.metrics.LoyaltyPointsAwarded.Add(float64(award.Entry.Points))
		s.log.Info("loyalty points awarded",
			"customer_id", booking.CustomerID.String(),
			"booking_id", id.String(),
			"points", award.Entry.Points)
	}
	return booking, nil
}
