package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/cleaning-api/internal/model"
)

var (
	// ErrNotFound is returned when a row looked up by id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update found the row in a
	// different state than expected.
	ErrConflict = errors.New("record state conflict")
)

// All repository interfaces in one file
type (
	// CatalogRepository handles services and their pricing tables
	CatalogRepository interface {
		CreateService(ctx context.Context, svc *model.Service) error
		UpdateService(ctx context.Context, svc *model.Service) error
		GetService(ctx context.Context, id int64) (*model.Service, error)
		ListServices(ctx context.Context, filters model.ServiceFilters) ([]*model.Service, error)

		UpsertTier(ctx context.Context, tier *model.PricingTier) error
		ListTiers(ctx context.Context, serviceID int64) ([]*model.PricingTier, error)
		UpsertSqmRate(ctx context.Context, rate *model.SqmRate) error
		ListSqmRates(ctx context.Context, serviceID int64) ([]*model.SqmRate, error)
		UpsertItem(ctx context.Context, item *model.PricingItem) error
		ListItems(ctx context.Context, serviceID int64) ([]*model.PricingItem, error)
		// SetItemMinimum sets minimum_charge on every item of a service in a
		// single statement and returns the number of items changed.
		SetItemMinimum(ctx context.Context, serviceID, minimum int64) (int64, error)
		CreateAddOn(ctx context.Context, addOn *model.AddOn) error
		ListAddOns(ctx context.Context, serviceID int64) ([]*model.AddOn, error)
		UpsertPackageDiscount(ctx context.Context, pkg *model.PackageDiscount) error
		ListPackageDiscounts(ctx context.Context, serviceID int64) ([]*model.PackageDiscount, error)

		CreateSpecialOffer(ctx context.Context, offer *model.SpecialOffer) error
		ListSpecialOffers(ctx context.Context, activeOnly bool) ([]*model.SpecialOffer, error)
		SetSpecialOfferActive(ctx context.Context, id int64, active bool) error

		// LoadSnapshot reads every row a price calculation needs in one
		// read-only transaction.
		LoadSnapshot(ctx context.Context, q model.SnapshotQuery) (*model.PricingSnapshot, error)
	}

	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking, events ...*model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		List(ctx context.Context, filters model.BookingFilters) ([]*model.Booking, int, error)
		// UpdateStatus moves a booking from one status to another and fails
		// with ErrConflict if it is no longer in the expected status. A
		// non-nil award is written to the loyalty ledger in the same
		// transaction.
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus, reason *string, award *model.LoyaltyAward, events ...*model.OutboxEvent) error
	}

	QuoteRepository interface {
		Create(ctx context.Context, quote *model.Quote, events ...*model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Quote, error)
		List(ctx context.Context, filters model.QuoteFilters) ([]*model.Quote, int, error)
		// Accept marks an open, unexpired quote accepted and inserts the
		// booking in the same transaction.
		Accept(ctx context.Context, quoteID uuid.UUID, booking *model.Booking, now time.Time, events ...*model.OutboxEvent) error
		ExpireOpen(ctx context.Context, now time.Time) (int64, error)
	}

	LoyaltyRepository interface {
		// Award inserts the ledger row for a booking. It reports false when
		// the booking was already awarded.
		Award(ctx context.Context, entry *model.LoyaltyEntry, events ...*model.OutboxEvent) (bool, error)
		Balance(ctx context.Context, customerID uuid.UUID) (int64, error)
		History(ctx context.Context, customerID uuid.UUID, limit int) ([]*model.LoyaltyEntry, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ProcessPending locks up to limit due events, hands each to publish
		// and records the outcome before committing.
		ProcessPending(ctx context.Context, limit int, policy RetryPolicy, publish func(context.Context, *model.OutboxEvent) error) (ProcessResult, error)
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// RetryPolicy decides when a failed outbox event is tried again.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// NextAttempt returns when the event should be retried after its n-th
// failure, and whether it should instead be given up on.
func (p RetryPolicy) NextAttempt(now time.Time, failures int) (time.Time, bool) {
	if failures >= p.MaxRetries {
		return time.Time{}, true
	}
	return now.Add(p.Delay * time.Duration(failures)), false
}

type ProcessResult struct {
	Processed  int
	Failed     int
	DeadLetter int
}
