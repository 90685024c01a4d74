package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"kantor-wallet/internal/core/domain"
	"kantor-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu       sync.Mutex
	wallets  map[uuid.UUID]*domain.Wallet
	balances map[uuid.UUID]map[string]decimal.Decimal
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets:  make(map[uuid.UUID]*domain.Wallet),
		balances: make(map[uuid.UUID]map[string]decimal.Decimal),
	}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.UserID == userID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) AddToBalancePLN(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return decimal.Zero, fmt.Errorf("wallet not found")
	}
	w.BalancePLN = w.BalancePLN.Add(amount)
	return w.BalancePLN, nil
}

func (r *inMemoryWalletRepo) TryDebitBalancePLN(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return decimal.Zero, false, fmt.Errorf("wallet not found")
	}
	next := w.BalancePLN.Sub(amount)
	if next.IsNegative() {
		return decimal.Zero, false, nil
	}
	w.BalancePLN = next
	return next, true, nil
}

func (r *inMemoryWalletRepo) ListCurrencyBalances(ctx context.Context, walletID uuid.UUID) ([]domain.CurrencyBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CurrencyBalance, 0)
	for code, amt := range r.balances[walletID] {
		out = append(out, domain.CurrencyBalance{WalletID: walletID, CurrencyCode: code, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyCode < out[j].CurrencyCode })
	return out, nil
}

func (r *inMemoryWalletRepo) UpsertCurrencyBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, currency string, amount decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balances[walletID] == nil {
		r.balances[walletID] = make(map[string]decimal.Decimal)
	}
	next := r.balances[walletID][currency].Add(amount)
	r.balances[walletID][currency] = next
	return next, nil
}

func (r *inMemoryWalletRepo) TryDebitCurrencyBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, currency string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.balances[walletID][currency]
	if !ok {
		return decimal.Zero, false, nil
	}
	next := current.Sub(amount)
	if next.IsNegative() {
		return decimal.Zero, false, nil
	}
	r.balances[walletID][currency] = next
	return next, true, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now().UTC()
	cp := *t
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *inMemoryTransactionRepo) ListByUser(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Transaction
	for _, t := range r.entries {
		if t.UserID != params.UserID {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.Currency != nil && (t.Exchange == nil || t.Exchange.CurrencyCode != *params.Currency) {
			continue
		}
		matched = append(matched, *t)
	}
	// Newest first
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return nil, total, nil
	}
	end := params.Offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[params.Offset:end], total, nil
}

// --- In-Memory Rate Repo ---

type inMemoryRateRepo struct {
	mu    sync.Mutex
	rates []domain.ExchangeRate
}

func newInMemoryRateRepo() *inMemoryRateRepo {
	return &inMemoryRateRepo{}
}

func (r *inMemoryRateRepo) InsertBatch(ctx context.Context, rates []domain.ExchangeRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
outer:
	for _, rate := range rates {
		for _, existing := range r.rates {
			if existing.CurrencyCode == rate.CurrencyCode && existing.EffectiveDate.Equal(rate.EffectiveDate) {
				continue outer
			}
		}
		r.rates = append(r.rates, rate)
	}
	return nil
}

func (r *inMemoryRateRepo) GetLatest(ctx context.Context, currency string) (*domain.ExchangeRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.ExchangeRate
	for i := range r.rates {
		rate := r.rates[i]
		if rate.CurrencyCode != currency {
			continue
		}
		if latest == nil || rate.EffectiveDate.After(latest.EffectiveDate) {
			latest = &rate
		}
	}
	return latest, nil
}

func (r *inMemoryRateRepo) ListLatest(ctx context.Context) ([]domain.ExchangeRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := make(map[string]domain.ExchangeRate)
	for _, rate := range r.rates {
		if cur, ok := latest[rate.CurrencyCode]; !ok || rate.EffectiveDate.After(cur.EffectiveDate) {
			latest[rate.CurrencyCode] = rate
		}
	}
	out := make([]domain.ExchangeRate, 0, len(latest))
	for _, rate := range latest {
		out = append(out, rate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyCode < out[j].CurrencyCode })
	return out, nil
}

func (r *inMemoryRateRepo) ListByDate(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ExchangeRate
	for _, rate := range r.rates {
		if rate.EffectiveDate.Equal(date) {
			out = append(out, rate)
		}
	}
	return out, nil
}

func (r *inMemoryRateRepo) History(ctx context.Context, currency string, from, to time.Time) ([]domain.ExchangeRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ExchangeRate
	for _, rate := range r.rates {
		if rate.CurrencyCode != currency {
			continue
		}
		if rate.EffectiveDate.Before(from) || rate.EffectiveDate.After(to) {
			continue
		}
		out = append(out, rate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveDate.Before(out[j].EffectiveDate) })
	return out, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
