package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/cleaning-api/internal/repository"
)

type catalogRepository struct {
	BaseRepository
}

type bookingRepository struct {
	BaseRepository
}

type quoteRepository struct {
	BaseRepository
}

type loyaltyRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewCatalogRepository(db *sqlx.DB) repository.CatalogRepository {
	return &catalogRepository{NewBaseRepository(db)}
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{NewBaseRepository(db)}
}

func NewQuoteRepository(db *sqlx.DB) repository.QuoteRepository {
	return &quoteRepository{NewBaseRepository(db)}
}

func NewLoyaltyRepository(db *sqlx.DB) repository.LoyaltyRepository {
	return &loyaltyRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}
