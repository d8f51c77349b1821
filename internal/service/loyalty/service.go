package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/repository"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

const (
	historyLimit     = 50
	reasonCompletion = "booking_completed"
)

type LoyaltyServicer interface {
	NewAward(b *model.Booking) (*model.LoyaltyAward, error)
	AwardForBooking(ctx context.Context, b *model.Booking) (*model.LoyaltyEntry, error)
	Balance(ctx context.Context, customerID uuid.UUID) (int64, error)
	History(ctx context.Context, customerID uuid.UUID) ([]*model.LoyaltyEntry, error)
	Summary(ctx context.Context, customerID uuid.UUID) (*model.LoyaltySummary, error)
}

type Service struct {
	repo          repository.LoyaltyRepository
	unitsPerPoint int64
	metrics       *metrics.Metrics
	log           *logger.Logger
	now           func() time.Time
}

func NewService(repo repository.LoyaltyRepository, unitsPerPoint int64, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		unitsPerPoint: unitsPerPoint,
		metrics:       m,
		log:           log.With("loyalty"),
		now:           time.Now,
	}
}

// Points returns the points a final price earns. Prices below one full unit
// earn nothing.
func Points(finalPrice, unitsPerPoint int64) int64 {
	if unitsPerPoint <= 0 || finalPrice <= 0 {
		return 0
	}
	return finalPrice / unitsPerPoint
}

// NewAward builds the ledger entry and event for a completed booking without
// writing them. It returns nil when the booking earns no points.
func (s *Service) NewAward(b *model.Booking) (*model.LoyaltyAward, error) {
	if b.Status != model.BookingStatusCompleted {
		return nil, fmt.Errorf("booking %s is %s, not completed", b.ID, b.Status)
	}
	points := Points(b.FinalPrice, s.unitsPerPoint)
	if points == 0 {
		return nil, nil
	}

	now := s.now().UTC()
	entry := &model.LoyaltyEntry{
		ID:         uuid.New(),
		CustomerID: b.CustomerID,
		BookingID:  b.ID,
		Points:     points,
		Reason:     reasonCompletion,
		CreatedAt:  now,
	}
	event, err := model.NewOutboxEvent(model.EventLoyaltyAwarded, model.AggregateLoyalty, b.CustomerID.String(),
		model.LoyaltyAwardedPayload{CustomerID: b.CustomerID, BookingID: b.ID, Points: points}, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build loyalty event: %w", err)
	}
	return &model.LoyaltyAward{Entry: entry, Event: event}, nil
}

// AwardForBooking credits a completed booking on its own. Calling it again
// for the same booking is a no-op and returns nil.
func (s *Service) AwardForBooking(ctx context.Context, b *model.Booking) (*model.LoyaltyEntry, error) {
	award, err := s.NewAward(b)
	if err != nil || award == nil {
		return nil, err
	}

	inserted, err := s.repo.Award(ctx, award.Entry, award.Event)
	if err != nil {
		return nil, fmt.Errorf("failed to award points: %w", err)
	}
	if !inserted {
		s.log.Debug("booking already awarded", "booking_id", b.ID.String())
		return nil, nil
	}
	s.metrics.LoyaltyPointsAwarded.Add(float64(award.Entry.Points))
	s.log.Info("loyalty points awarded",
		"customer_id", b.CustomerID.String(),
		"booking_id", b.ID.String(),
		"points", award.Entry.Points)
	return award.Entry, nil
}

func (s *Service) Balance(ctx context.Context, customerID uuid.UUID) (int64, error) {
	return s.repo.Balance(ctx, customerID)
}

func (s *Service) History(ctx context.Context, customerID uuid.UUID) ([]*model.LoyaltyEntry, error) {
	return s.repo.History(ctx, customerID, historyLimit)
}

func (s *Service) Summary(ctx context.Context, customerID uuid.UUID) (*model.LoyaltySummary, error) {
	balance, err := s.Balance(ctx, customerID)
	if err != nil {
		return nil, err
	}
	history, err := s.History(ctx, customerID)
	if err != nil {
		return nil, err
	}
	summary := &model.LoyaltySummary{CustomerID: customerID, Balance: balance, History: make([]model.LoyaltyEntry, 0, len(history))}
	for _, e := range history {
		summary.History = append(summary.History, *e)
	}
	return summary, nil
}
