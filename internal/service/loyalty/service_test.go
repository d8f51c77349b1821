package loyalty

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

type fakeLedger struct {
	entries map[uuid.UUID]*model.LoyaltyEntry
	events  []*model.OutboxEvent
}

func (f *fakeLedger) Award(_ context.Context, e *model.LoyaltyEntry, events ...*model.OutboxEvent) (bool, error) {
	if _, ok := f.entries[e.BookingID]; ok {
		return false, nil
	}
	f.entries[e.BookingID] = e
	f.events = append(f.events, events...)
	return true, nil
}

func (f *fakeLedger) Balance(_ context.Context, customerID uuid.UUID) (int64, error) {
	var total int64
	for _, e := range f.entries {
		if e.CustomerID == customerID {
			total += e.Points
		}
	}
	return total, nil
}

func (f *fakeLedger) History(_ context.Context, customerID uuid.UUID, limit int) ([]*model.LoyaltyEntry, error) {
	var out []*model.LoyaltyEntry
	for _, e := range f.entries {
		if e.CustomerID == customerID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestPoints(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		per   int64
		want  int64
	}{
		{"floors partial units", 297000, 1000, 297},
		{"rounds down", 1999, 1000, 1},
		{"below one unit", 999, 1000, 0},
		{"zero price", 0, 1000, 0},
		{"disabled", 297000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Points(tt.price, tt.per))
		})
	}
}

func TestAwardForBookingIsIdempotent(t *testing.T) {
	ledger := &fakeLedger{entries: map[uuid.UUID]*model.LoyaltyEntry{}}
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	svc := NewService(ledger, 1000, m, logger.Nop())
	ctx := context.Background()

	b := &model.Booking{ID: uuid.New(), CustomerID: uuid.New(), Status: model.BookingStatusCompleted, FinalPrice: 297000}

	entry, err := svc.AwardForBooking(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(297), entry.Points)
	require.Len(t, ledger.events, 1)
	assert.Equal(t, model.EventLoyaltyAwarded, ledger.events[0].EventType)

	entry, err = svc.AwardForBooking(ctx, b)
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Len(t, ledger.events, 1)
	assert.Equal(t, 297.0, testutil.ToFloat64(m.LoyaltyPointsAwarded))

	summary, err := svc.Summary(ctx, b.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, int64(297), summary.Balance)
	assert.Len(t, summary.History, 1)
}

func TestAwardRequiresCompletedBooking(t *testing.T) {
	ledger := &fakeLedger{entries: map[uuid.UUID]*model.LoyaltyEntry{}}
	svc := NewService(ledger, 1000, metrics.NewMetrics("test", prometheus.NewRegistry()), logger.Nop())

	_, err := svc.AwardForBooking(context.Background(), &model.Booking{ID: uuid.New(), Status: model.BookingStatusConfirmed, FinalPrice: 5000})
	assert.Error(t, err)
	assert.Empty(t, ledger.entries)
}

func TestNewAwardDoesNotWrite(t *testing.T) {
	ledger := &fakeLedger{entries: map[uuid.UUID]*model.LoyaltyEntry{}}
	svc := NewService(ledger, 1000, metrics.NewMetrics("test", prometheus.NewRegistry()), logger.Nop())

	b := &model.Booking{ID: uuid.New(), CustomerID: uuid.New(), Status: model.BookingStatusCompleted, FinalPrice: 45000}
	award, err := svc.NewAward(b)
	require.NoError(t, err)
	require.NotNil(t, award)
	assert.Equal(t, int64(45), award.Entry.Points)
	assert.Equal(t, b.ID, award.Entry.BookingID)
	assert.Equal(t, model.EventLoyaltyAwarded, award.Event.EventType)
	assert.Empty(t, ledger.entries)

	award, err = svc.NewAward(&model.Booking{ID: uuid.New(), Status: model.BookingStatusCompleted, FinalPrice: 500})
	require.NoError(t, err)
	assert.Nil(t, award)
}
