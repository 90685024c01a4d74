package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kantor-wallet/internal/core/domain"
	"kantor-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- Fake User Repo ---

type fakeUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

// --- Fake Wallet Repo ---

type fakeWalletRepo struct {
	mu       sync.Mutex
	wallets  map[uuid.UUID]*domain.Wallet
	balances map[uuid.UUID]map[string]decimal.Decimal
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{
		wallets:  make(map[uuid.UUID]*domain.Wallet),
		balances: make(map[uuid.UUID]map[string]decimal.Decimal),
	}
}

func (r *fakeWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *fakeWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
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

func (r *fakeWalletRepo) AddToBalancePLN(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return decimal.Zero, fmt.Errorf("wallet not found")
	}
	w.BalancePLN = w.BalancePLN.Add(amount)
	return w.BalancePLN, nil
}

func (r *fakeWalletRepo) TryDebitBalancePLN(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, bool, error) {
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

func (r *fakeWalletRepo) ListCurrencyBalances(ctx context.Context, walletID uuid.UUID) ([]domain.CurrencyBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CurrencyBalance
	for code, amt := range r.balances[walletID] {
		out = append(out, domain.CurrencyBalance{WalletID: walletID, CurrencyCode: code, Amount: amt})
	}
	return out, nil
}

func (r *fakeWalletRepo) UpsertCurrencyBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, currency string, amount decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balances[walletID] == nil {
		r.balances[walletID] = make(map[string]decimal.Decimal)
	}
	next := r.balances[walletID][currency].Add(amount)
	r.balances[walletID][currency] = next
	return next, nil
}

func (r *fakeWalletRepo) TryDebitCurrencyBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, currency string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
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

// --- Fake Transaction Repo ---

type fakeTransactionRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []*domain.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{}
}

func (r *fakeTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now().UTC()
	cp := *t
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeTransactionRepo) ListByUser(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
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

// --- Fake Rate Repo ---

type fakeRateRepo struct {
	mu    sync.Mutex
	rates []domain.ExchangeRate
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{}
}

func (r *fakeRateRepo) InsertBatch(ctx context.Context, rates []domain.ExchangeRate) error {
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

func (r *fakeRateRepo) GetLatest(ctx context.Context, currency string) (*domain.ExchangeRate, error) {
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

func (r *fakeRateRepo) ListLatest(ctx context.Context) ([]domain.ExchangeRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := make(map[string]domain.ExchangeRate)
	for _, rate := range r.rates {
		if cur, ok := latest[rate.CurrencyCode]; !ok || rate.EffectiveDate.After(cur.EffectiveDate) {
			latest[rate.CurrencyCode] = rate
		}
	}
	var out []domain.ExchangeRate
	for _, rate := range latest {
		out = append(out, rate)
	}
	return out, nil
}

func (r *fakeRateRepo) ListByDate(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error) {
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

func (r *fakeRateRepo) History(ctx context.Context, currency string, from, to time.Time) ([]domain.ExchangeRate, error) {
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

// --- Fake Rate Source ---

type fakeRateSource struct {
	current *ports.RatePublication
	byDate  map[string]*ports.RatePublication
	err     error
}

func (s *fakeRateSource) Current(ctx context.Context) (*ports.RatePublication, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.current, nil
}

func (s *fakeRateSource) ByDate(ctx context.Context, date time.Time) (*ports.RatePublication, error) {
	if s.err != nil {
		return nil, s.err
	}
	pub, ok := s.byDate[date.Format("2006-01-02")]
	if !ok {
		return nil, ports.ErrNoPublication
	}
	return pub, nil
}

// --- Fake Rate Cache ---

type fakeRateCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newFakeRateCache() *fakeRateCache {
	return &fakeRateCache{items: make(map[string][]byte)}
}

func (c *fakeRateCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[key], nil
}

func (c *fakeRateCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *fakeRateCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

// --- Fake Transactor (no-op tx) ---

type fakeTransactor struct{}

func (t *fakeTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
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
