package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kantor-wallet/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// RateRepo implements ports.RateRepository.
type RateRepo struct {
	pool Pool
}

// NewRateRepo creates a new RateRepo.
func NewRateRepo(pool Pool) *RateRepo {
	return &RateRepo{pool: pool}
}

const rateColumns = `id, currency_code, currency_name, buy_rate, sell_rate, effective_date, table_no, created_at`

// InsertBatch stores one publication's quotes. Rows already present for
// the same currency and effective date are left untouched, so re-ingesting
// a publication is safe.
func (r *RateRepo) InsertBatch(ctx context.Context, rates []domain.ExchangeRate) error {
	query := `INSERT INTO exchange_rates (currency_code, currency_name, buy_rate, sell_rate, effective_date, table_no)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (currency_code, effective_date) DO NOTHING`

	for _, rate := range rates {
		_, err := r.pool.Exec(ctx, query,
			rate.CurrencyCode, rate.CurrencyName, rate.BuyRate,
			rate.SellRate, rate.EffectiveDate, rate.TableNo,
		)
		if err != nil {
			return fmt.Errorf("insert rate %s/%s: %w", rate.CurrencyCode, rate.EffectiveDate.Format("2006-01-02"), err)
		}
	}
	return nil
}

// GetLatest returns the most recent quote for one currency.
func (r *RateRepo) GetLatest(ctx context.Context, currency string) (*domain.ExchangeRate, error) {
	query := `SELECT ` + rateColumns + ` FROM exchange_rates
		WHERE currency_code = $1
		ORDER BY effective_date DESC LIMIT 1`

	rate := &domain.ExchangeRate{}
	err := r.pool.QueryRow(ctx, query, currency).Scan(
		&rate.ID, &rate.CurrencyCode, &rate.CurrencyName, &rate.BuyRate,
		&rate.SellRate, &rate.EffectiveDate, &rate.TableNo, &rate.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest rate: %w", err)
	}
	return rate, nil
}

// ListLatest returns the most recent quote per currency.
func (r *RateRepo) ListLatest(ctx context.Context) ([]domain.ExchangeRate, error) {
	query := `SELECT DISTINCT ON (currency_code) ` + rateColumns + `
		FROM exchange_rates
		ORDER BY currency_code ASC, effective_date DESC`

	return r.queryRates(ctx, query)
}

// ListByDate returns all quotes effective on the given date.
func (r *RateRepo) ListByDate(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error) {
	query := `SELECT ` + rateColumns + ` FROM exchange_rates
		WHERE effective_date = $1
		ORDER BY currency_code ASC`

	return r.queryRates(ctx, query, date)
}

// History returns quotes for one currency within [from, to], oldest first.
func (r *RateRepo) History(ctx context.Context, currency string, from, to time.Time) ([]domain.ExchangeRate, error) {
	query := `SELECT ` + rateColumns + ` FROM exchange_rates
		WHERE currency_code = $1 AND effective_date BETWEEN $2 AND $3
		ORDER BY effective_date ASC`

	return r.queryRates(ctx, query, currency, from, to)
}

func (r *RateRepo) queryRates(ctx context.Context, query string, args ...any) ([]domain.ExchangeRate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rates: %w", err)
	}
	defer rows.Close()

	var rates []domain.ExchangeRate
	for rows.Next() {
		var rate domain.ExchangeRate
		if err := rows.Scan(
			&rate.ID, &rate.CurrencyCode, &rate.CurrencyName, &rate.BuyRate,
			&rate.SellRate, &rate.EffectiveDate, &rate.TableNo, &rate.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rates: %w", err)
	}
	return rates, nil
}
