package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kantor-wallet/internal/core/domain"
	"kantor-wallet/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a transaction. The generated ID
// and timestamp are written back onto the record.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (wallet_id, user_id, type, amount_pln, currency_code, amount, rate, rate_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	var (
		currency *string
		amount   *decimal.Decimal
		rate     *decimal.Decimal
		rateDate any
	)
	if t.Exchange != nil {
		currency = &t.Exchange.CurrencyCode
		amount = &t.Exchange.Amount
		rate = &t.Exchange.Rate
		rateDate = t.Exchange.RateDate
	}

	err := tx.QueryRow(ctx, query,
		t.WalletID, t.UserID, t.Type, t.AmountPLN,
		currency, amount, rate, rateDate,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListByUser returns a page of the user's ledger, newest first (ties
// broken by ascending ID), plus the total matching count.
func (r *TransactionRepo) ListByUser(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	where := []string{"user_id = $1"}
	args := []any{params.UserID}

	if params.Type != nil {
		args = append(args, *params.Type)
		where = append(where, "type = $"+strconv.Itoa(len(args)))
	}
	if params.Currency != nil {
		args = append(args, *params.Currency)
		where = append(where, "currency_code = $"+strconv.Itoa(len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	listQuery := fmt.Sprintf(`SELECT id, wallet_id, user_id, type, amount_pln, currency_code, amount, rate, rate_date, created_at
		FROM transactions WHERE %s
		ORDER BY created_at DESC, id ASC
		LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, total, nil
}

func scanTransaction(rows pgx.Rows) (domain.Transaction, error) {
	var (
		t        domain.Transaction
		currency *string
		amount   *decimal.Decimal
		rate     *decimal.Decimal
		rateDate *time.Time
	)
	if err := rows.Scan(
		&t.ID, &t.WalletID, &t.UserID, &t.Type, &t.AmountPLN,
		&currency, &amount, &rate, &rateDate, &t.CreatedAt,
	); err != nil {
		return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if currency != nil {
		t.Exchange = &domain.ExchangeDetails{
			CurrencyCode: strings.TrimSpace(*currency),
			Amount:       *amount,
			Rate:         *rate,
		}
		if rateDate != nil {
			t.Exchange.RateDate = *rateDate
		}
	}
	return t, nil
}
