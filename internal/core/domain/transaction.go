package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of ledger entry.
type TransactionType string

const (
	TransactionTypeDeposit TransactionType = "DEPOSIT"
	TransactionTypeBuy     TransactionType = "BUY"
	TransactionTypeSell    TransactionType = "SELL"
)

// ExchangeDetails carries the currency leg of a BUY or SELL entry.
type ExchangeDetails struct {
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"` // Foreign-currency amount
	Rate         decimal.Decimal `json:"rate"`   // PLN per unit applied
	RateDate     time.Time       `json:"rate_date"`
}

// Transaction is an immutable ledger entry. AmountPLN is the PLN leg:
// positive for DEPOSIT and SELL (PLN in), negative for BUY (PLN out).
// Exchange is nil for DEPOSIT entries.
type Transaction struct {
	ID        int64            `json:"id"`
	WalletID  uuid.UUID        `json:"wallet_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      TransactionType  `json:"type"`
	AmountPLN decimal.Decimal  `json:"amount_pln"`
	Exchange  *ExchangeDetails `json:"exchange,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewDepositRecord builds the ledger entry for a PLN deposit.
func NewDepositRecord(walletID, userID uuid.UUID, amountPLN decimal.Decimal) *Transaction {
	return &Transaction{
		WalletID:  walletID,
		UserID:    userID,
		Type:      TransactionTypeDeposit,
		AmountPLN: amountPLN,
	}
}

// NewBuyRecord builds the ledger entry for buying foreign currency with PLN.
func NewBuyRecord(walletID, userID uuid.UUID, costPLN decimal.Decimal, ex ExchangeDetails) *Transaction {
	return &Transaction{
		WalletID:  walletID,
		UserID:    userID,
		Type:      TransactionTypeBuy,
		AmountPLN: costPLN.Neg(),
		Exchange:  &ex,
	}
}

// NewSellRecord builds the ledger entry for selling foreign currency for PLN.
func NewSellRecord(walletID, userID uuid.UUID, proceedsPLN decimal.Decimal, ex ExchangeDetails) *Transaction {
	return &Transaction{
		WalletID:  walletID,
		UserID:    userID,
		Type:      TransactionTypeSell,
		AmountPLN: proceedsPLN,
		Exchange:  &ex,
	}
}
