package ports

import (
	"context"
	"time"

	"kantor-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// WalletRepository defines persistence operations for wallets and their
// currency positions. Methods accepting pgx.Tx run inside transaction
// blocks; the debit methods encode the non-negative guard in the update
// itself and report false when funds are insufficient.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	// AddToBalancePLN credits the PLN balance and returns the new balance.
	AddToBalancePLN(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	// TryDebitBalancePLN debits the PLN balance if funds suffice.
	// Returns the new balance and true, or zero and false when the
	// guard rejects the debit.
	TryDebitBalancePLN(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, bool, error)
	ListCurrencyBalances(ctx context.Context, walletID uuid.UUID) ([]domain.CurrencyBalance, error)
	// UpsertCurrencyBalance credits a foreign position, creating the row
	// on first use. Returns the new position amount.
	UpsertCurrencyBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, currency string, amount decimal.Decimal) (decimal.Decimal, error)
	// TryDebitCurrencyBalance debits a foreign position if funds suffice.
	// A missing row counts as a zero balance.
	TryDebitCurrencyBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, currency string, amount decimal.Decimal) (decimal.Decimal, bool, error)
}

// RateRepository defines persistence operations for exchange rates.
type RateRepository interface {
	// InsertBatch stores one publication's quotes, skipping rows already
	// present for the same currency and date.
	InsertBatch(ctx context.Context, rates []domain.ExchangeRate) error
	// GetLatest returns the most recent quote for one currency.
	GetLatest(ctx context.Context, currency string) (*domain.ExchangeRate, error)
	// ListLatest returns the most recent quote per tracked currency.
	ListLatest(ctx context.Context) ([]domain.ExchangeRate, error)
	// ListByDate returns all quotes effective on the given date.
	ListByDate(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error)
	// History returns quotes for one currency within [from, to], oldest first.
	History(ctx context.Context, currency string, from, to time.Time) ([]domain.ExchangeRate, error)
}

// TransactionRepository defines persistence for the append-only ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	ListByUser(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// Pagination bounds for ledger listings.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// TransactionListParams holds filter + pagination for listing ledger entries.
type TransactionListParams struct {
	UserID   uuid.UUID
	Type     *domain.TransactionType
	Currency *string
	Limit    int
	Offset   int
}

// Normalized clamps Limit to [1, MaxListLimit] with DefaultListLimit as
// the zero-value default, and negative Offset to zero.
func (p TransactionListParams) Normalized() TransactionListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultListLimit
	}
	if p.Limit > MaxListLimit {
		p.Limit = MaxListLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
