package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is a buy/sell quote for one currency on one effective date,
// derived from an NBP table A publication.
type ExchangeRate struct {
	ID            int64           `json:"id"`
	CurrencyCode  string          `json:"currency_code"`
	CurrencyName  string          `json:"currency_name"`
	BuyRate       decimal.Decimal `json:"buy_rate"`  // PLN the house pays per unit (applies to SELL)
	SellRate      decimal.Decimal `json:"sell_rate"` // PLN the house charges per unit (applies to BUY)
	EffectiveDate time.Time       `json:"effective_date"`
	TableNo       string          `json:"table_no"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RatesFromMid derives buy and sell quotes from a published mid rate.
// spreadPct is the full spread in percent; half is applied on each side.
// With a zero spread both quotes equal the mid.
func RatesFromMid(mid decimal.Decimal, spreadPct float64) (buy, sell decimal.Decimal) {
	if spreadPct == 0 {
		return mid, mid
	}
	half := decimal.NewFromFloat(spreadPct / 200)
	delta := mid.Mul(half)
	buy = mid.Sub(delta).Round(6)
	sell = mid.Add(delta).Round(6)
	return buy, sell
}
