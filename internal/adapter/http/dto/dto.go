package dto

import (
	"time"

	"kantor-wallet/internal/core/domain"
	"kantor-wallet/internal/core/ports"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	FirstName string `json:"first_name" binding:"omitempty,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// DepositRequest is the request body for a PLN deposit.
// Amounts travel as JSON strings to keep exact decimal values.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// ExchangeRequest is the request body for buying or selling currency.
// Amount is denominated in the foreign currency.
type ExchangeRequest struct {
	Currency string          `json:"currency" binding:"required,currency_code"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

// CurrencyBalanceResponse is one foreign position within a wallet.
type CurrencyBalanceResponse struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// WalletResponse is the response for the wallet snapshot.
type WalletResponse struct {
	WalletID   string                    `json:"wallet_id"`
	BalancePLN string                    `json:"balance_pln"`
	Balances   []CurrencyBalanceResponse `json:"balances"`
}

// TransactionResponse is one ledger entry.
type TransactionResponse struct {
	ID        int64   `json:"id"`
	Type      string  `json:"type"`
	AmountPLN string  `json:"amount_pln"`
	Currency  *string `json:"currency,omitempty"`
	Amount    *string `json:"amount,omitempty"`
	Rate      *string `json:"rate,omitempty"`
	RateDate  *string `json:"rate_date,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// ExchangeResultResponse is the response for deposit/buy/sell.
type ExchangeResultResponse struct {
	Transaction     TransactionResponse `json:"transaction"`
	BalancePLN      string              `json:"balance_pln"`
	CurrencyBalance *string             `json:"currency_balance,omitempty"`
}

// RateResponse is one currency's quote.
type RateResponse struct {
	Currency      string `json:"currency"`
	Name          string `json:"name"`
	BuyRate       string `json:"buy_rate"`
	SellRate      string `json:"sell_rate"`
	EffectiveDate string `json:"effective_date"`
	TableNo       string `json:"table_no"`
}

// RateTableResponse is a full set of quotes sharing one effective date.
type RateTableResponse struct {
	EffectiveDate string         `json:"effective_date"`
	Rates         []RateResponse `json:"rates"`
}

// TransactionListResponse wraps a paginated ledger page.
type TransactionListResponse struct {
	Items  []TransactionResponse `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// ToTransactionResponse maps a ledger entry to its wire form.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:        t.ID,
		Type:      string(t.Type),
		AmountPLN: t.AmountPLN.StringFixed(2),
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.Exchange != nil {
		currency := t.Exchange.CurrencyCode
		amount := t.Exchange.Amount.StringFixed(2)
		rate := t.Exchange.Rate.String()
		rateDate := t.Exchange.RateDate.Format("2006-01-02")
		resp.Currency = &currency
		resp.Amount = &amount
		resp.Rate = &rate
		resp.RateDate = &rateDate
	}
	return resp
}

// ToExchangeResultResponse maps a ledger operation result to its wire form.
func ToExchangeResultResponse(r *ports.ExchangeResult) ExchangeResultResponse {
	resp := ExchangeResultResponse{
		Transaction: ToTransactionResponse(r.Transaction),
		BalancePLN:  r.NewBalancePLN.StringFixed(2),
	}
	if r.NewCurrencyBalance != nil {
		v := r.NewCurrencyBalance.StringFixed(2)
		resp.CurrencyBalance = &v
	}
	return resp
}

// ToWalletResponse maps a wallet snapshot to its wire form.
func ToWalletResponse(s *domain.WalletSnapshot) WalletResponse {
	resp := WalletResponse{
		WalletID:   s.Wallet.ID.String(),
		BalancePLN: s.Wallet.BalancePLN.StringFixed(2),
		Balances:   make([]CurrencyBalanceResponse, 0, len(s.Balances)),
	}
	for _, b := range s.Balances {
		resp.Balances = append(resp.Balances, CurrencyBalanceResponse{
			Currency: b.CurrencyCode,
			Amount:   b.Amount.StringFixed(2),
		})
	}
	return resp
}

// ToRateResponse maps a quote to its wire form.
func ToRateResponse(r *domain.ExchangeRate) RateResponse {
	return RateResponse{
		Currency:      r.CurrencyCode,
		Name:          r.CurrencyName,
		BuyRate:       r.BuyRate.String(),
		SellRate:      r.SellRate.String(),
		EffectiveDate: r.EffectiveDate.Format("2006-01-02"),
		TableNo:       r.TableNo,
	}
}

// ToRateResponses maps a slice of quotes.
func ToRateResponses(rates []domain.ExchangeRate) []RateResponse {
	out := make([]RateResponse, 0, len(rates))
	for i := range rates {
		out = append(out, ToRateResponse(&rates[i]))
	}
	return out
}

// ToRateTableResponse maps a set of same-day quotes to its wire form.
func ToRateTableResponse(rates []domain.ExchangeRate) RateTableResponse {
	resp := RateTableResponse{Rates: ToRateResponses(rates)}
	if len(rates) > 0 {
		resp.EffectiveDate = rates[0].EffectiveDate.Format("2006-01-02")
	}
	return resp
}
