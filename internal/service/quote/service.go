package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/cleaning-api/config"
	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/repository"
	"github.com/jwalitptl/cleaning-api/internal/service/booking"
	"github.com/jwalitptl/cleaning-api/internal/service/price"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

type QuoteServicer interface {
	CreateQuote(ctx context.Context, req *model.CreateQuoteRequest) (*model.Quote, error)
	GetQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	ListQuotes(ctx context.Context, filters model.QuoteFilters) ([]*model.Quote, int, error)
	AcceptQuote(ctx context.Context, id uuid.UUID, req *model.AcceptQuoteRequest) (*model.Booking, error)
	ExpireQuotes(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	repo    repository.QuoteRepository
	pricer  price.PriceServicer
	cfg     config.PricingConfig
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewService(repo repository.QuoteRepository, pricer price.PriceServicer, cfg config.PricingConfig, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		pricer:  pricer,
		cfg:     cfg,
		metrics: m,
		log:     log.With("quote"),
		now:     time.Now,
	}
}

// CreateQuote prices the request and stores the breakdown frozen on an open
// quote that expires after the configured TTL.
func (s *Service) CreateQuote(ctx context.Context, req *model.CreateQuoteRequest) (*model.Quote, error) {
	breakdown, err := s.pricer.Price(ctx, req.PriceRequest.ToInput())
	if err != nil {
		return nil, err
	}
	raw, err := breakdown.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode pricing breakdown: %w", err)
	}

	now := s.now().UTC()
	q := &model.Quote{
		ID:               uuid.New(),
		CustomerID:       req.CustomerID,
		ServiceID:        req.ServiceID,
		Status:           model.QuoteStatusOpen,
		FinalPrice:       int64(breakdown.FinalPrice),
		Currency:         breakdown.Currency,
		PricingBreakdown: raw,
		ExpiresAt:        now.Add(s.cfg.QuoteTTL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	event, err := model.NewOutboxEvent(model.EventQuoteCreated, model.AggregateQuote, q.ID.String(),
		model.QuoteCreatedPayload{
			QuoteID:    q.ID,
			CustomerID: q.CustomerID,
			ServiceID:  q.ServiceID,
			FinalPrice: q.FinalPrice,
			Currency:   q.Currency,
			ExpiresAt:  q.ExpiresAt,
		}, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote event: %w", err)
	}
	if err := s.repo.Create(ctx, q, event); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	s.metrics.QuotesCreated.Inc()
	s.log.Info("quote created", "quote_id", q.ID.String(), "final_price", q.FinalPrice, "expires_at", q.ExpiresAt)
	return q, nil
}

func (s *Service) GetQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("quote", err)
		}
		return nil, err
	}
	return q, nil
}

func (s *Service) ListQuotes(ctx context.Context, filters model.QuoteFilters) ([]*model.Quote, int, error) {
	return s.repo.List(ctx, filters)
}

// AcceptQuote turns an open quote into a pending booking. The booking carries
// the quote's breakdown as stored; nothing is recomputed.
func (s *Service) AcceptQuote(ctx context.Context, id uuid.UUID, req *model.AcceptQuoteRequest) (*model.Booking, error) {
	q, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if !q.IsAcceptable(now) {
		return nil, apperrors.Conflict(fmt.Sprintf("quote %s can no longer be accepted", id), nil)
	}
	if err := booking.ValidateSchedule(s.cfg, req.ScheduledAt, now); err != nil {
		return nil, err
	}

	b, err := booking.NewPendingBooking(q.CustomerID, q.ServiceID, q.PricingBreakdown, req.ScheduledAt, req.Address, req.Notes, now)
	if err != nil {
		s.log.Error(err, "stored quote breakdown failed verification", "quote_id", id.String())
		return nil, err
	}
	quoteID := q.ID
	b.QuoteID = &quoteID

	created, err := booking.CreatedEvent(b, now)
	if err != nil {
		return nil, err
	}
	accepted, err := model.NewOutboxEvent(model.EventQuoteAccepted, model.AggregateQuote, q.ID.String(),
		model.QuoteAcceptedPayload{QuoteID: q.ID, BookingID: b.ID, CustomerID: q.CustomerID}, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote event: %w", err)
	}

	if err := s.repo.Accept(ctx, q.ID, b, now, accepted, created); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict(fmt.Sprintf("quote %s can no longer be accepted", id), err)
		}
		return nil, fmt.Errorf("failed to accept quote: %w", err)
	}

	s.metrics.BookingsCreated.WithLabelValues("quote").Inc()
	s.log.Info("quote accepted", "quote_id", q.ID.String(), "booking_id", b.ID.String())
	return b, nil
}

// ExpireQuotes closes every open quote whose expiry has passed.
func (s *Service) ExpireQuotes(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.ExpireOpen(ctx, now.UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.QuotesExpired.Add(float64(n))
		s.log.Info("quotes expired", "count", n)
	}
	return n, nil
}
