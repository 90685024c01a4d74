package postgres

import (
	"context"
	"errors"
	"fmt"

	"kantor-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
//
// The debit methods fold the non-negative guard into the UPDATE's WHERE
// clause, so guard and write are one indivisible statement. A rejected
// debit affects zero rows and surfaces as ok=false, never as a negative
// balance.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, balance_pln, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, w.BalancePLN, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByUserID fetches a wallet by its owner's ID.
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, user_id, balance_pln, created_at, updated_at
		FROM wallets WHERE user_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&w.ID, &w.UserID, &w.BalancePLN, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}
	return w, nil
}

// AddToBalancePLN credits the PLN balance within a transaction.
func (r *WalletRepo) AddToBalancePLN(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `UPDATE wallets SET balance_pln = balance_pln + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance_pln`

	var newBalance decimal.Decimal
	err := tx.QueryRow(ctx, query, amount, walletID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("wallet not found: %s", walletID)
		}
		return decimal.Zero, fmt.Errorf("credit pln balance: %w", err)
	}
	return newBalance, nil
}

// TryDebitBalancePLN debits the PLN balance if funds suffice.
// Returns ok=false when the conditional update matches no row.
func (r *WalletRepo) TryDebitBalancePLN(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	query := `UPDATE wallets SET balance_pln = balance_pln - $1, updated_at = NOW()
		WHERE id = $2 AND balance_pln - $1 >= 0
		RETURNING balance_pln`

	var newBalance decimal.Decimal
	err := tx.QueryRow(ctx, query, amount, walletID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("debit pln balance: %w", err)
	}
	return newBalance, true, nil
}

// ListCurrencyBalances returns all foreign positions of a wallet,
// ordered by currency code ascending.
func (r *WalletRepo) ListCurrencyBalances(ctx context.Context, walletID uuid.UUID) ([]domain.CurrencyBalance, error) {
	query := `SELECT wallet_id, currency_code, amount, updated_at
		FROM wallet_currency_balances
		WHERE wallet_id = $1
		ORDER BY currency_code ASC`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list currency balances: %w", err)
	}
	defer rows.Close()

	var balances []domain.CurrencyBalance
	for rows.Next() {
		var b domain.CurrencyBalance
		if err := rows.Scan(&b.WalletID, &b.CurrencyCode, &b.Amount, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan currency balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currency balances: %w", err)
	}
	return balances, nil
}

// UpsertCurrencyBalance credits a foreign position within a transaction,
// creating the row on first use.
func (r *WalletRepo) UpsertCurrencyBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, currency string, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `INSERT INTO wallet_currency_balances (wallet_id, currency_code, amount, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (wallet_id, currency_code)
		DO UPDATE SET amount = wallet_currency_balances.amount + EXCLUDED.amount, updated_at = NOW()
		RETURNING amount`

	var newAmount decimal.Decimal
	err := tx.QueryRow(ctx, query, walletID, currency, amount).Scan(&newAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("upsert currency balance: %w", err)
	}
	return newAmount, nil
}

// TryDebitCurrencyBalance debits a foreign position if funds suffice.
// A missing row behaves like a zero balance: the update matches nothing
// and ok=false is returned.
func (r *WalletRepo) TryDebitCurrencyBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, currency string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	query := `UPDATE wallet_currency_balances SET amount = amount - $1, updated_at = NOW()
		WHERE wallet_id = $2 AND currency_code = $3 AND amount - $1 >= 0
		RETURNING amount`

	var newAmount decimal.Decimal
	err := tx.QueryRow(ctx, query, amount, walletID, currency).Scan(&newAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("debit currency balance: %w", err)
	}
	return newAmount, true, nil
}
