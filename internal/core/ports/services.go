package ports

import (
	"context"
	"errors"
	"time"

	"kantor-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// RateCache is the Redis-layer cache for rate lookups.
type RateCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// ErrNoPublication signals that the upstream source published no rate
// table for the requested date.
var ErrNoPublication = errors.New("no rate publication for date")

// RateSource fetches rate publications from an upstream provider.
type RateSource interface {
	Current(ctx context.Context) (*RatePublication, error)
	ByDate(ctx context.Context, date time.Time) (*RatePublication, error)
}

// RatePublication is one table of mid rates, as published upstream.
type RatePublication struct {
	TableNo       string
	EffectiveDate time.Time
	Quotes        []RateQuote
}

// RateQuote is a single currency's mid rate within a publication.
type RateQuote struct {
	Code string
	Name string
	Mid  decimal.Decimal
}

// --- Service Ports (Business Logic) ---

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds validated input for user registration.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LedgerService defines the core wallet business logic. Every operation
// settles atomically: balances move and the ledger entry is written in
// one database transaction, or nothing happens.
type LedgerService interface {
	Deposit(ctx context.Context, userID uuid.UUID, amountPLN decimal.Decimal) (*ExchangeResult, error)
	Buy(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error)
	Sell(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletSnapshot, error)
}

// ExchangeRequest holds validated input for a buy or sell operation.
// Amount is denominated in the foreign currency.
type ExchangeRequest struct {
	UserID   uuid.UUID
	Currency string
	Amount   decimal.Decimal
}

// ExchangeResult reports the outcome of a ledger operation.
type ExchangeResult struct {
	Transaction   *domain.Transaction
	NewBalancePLN decimal.Decimal
	// NewCurrencyBalance is set for BUY and SELL, nil for DEPOSIT.
	NewCurrencyBalance *decimal.Decimal
}

// RateService defines exchange-rate lookup and ingestion logic.
type RateService interface {
	// Refresh fetches the current publication from the upstream source
	// and stores quotes for the tracked currencies.
	Refresh(ctx context.Context) (int, error)
	Latest(ctx context.Context) ([]domain.ExchangeRate, error)
	LatestFor(ctx context.Context, currency string) (*domain.ExchangeRate, error)
	ByDate(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error)
	History(ctx context.Context, currency string, from, to time.Time) ([]domain.ExchangeRate, error)
}

// HistoryService defines ledger history queries.
type HistoryService interface {
	ListForUser(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}
