package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BaseCurrency is the wallet's settlement currency. Deposits and
// exchange legs always settle against it.
const BaseCurrency = "PLN"

// Wallet represents a user's multi-currency wallet. The PLN balance
// lives on the wallet row; foreign balances are separate rows.
type Wallet struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	BalancePLN decimal.Decimal `json:"balance_pln"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CurrencyBalance is a single foreign-currency position within a wallet.
type CurrencyBalance struct {
	WalletID     uuid.UUID       `json:"wallet_id"`
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// WalletSnapshot is a point-in-time view of a wallet and all of its
// foreign positions, ordered by currency code ascending.
type WalletSnapshot struct {
	Wallet   Wallet            `json:"wallet"`
	Balances []CurrencyBalance `json:"balances"`
}
