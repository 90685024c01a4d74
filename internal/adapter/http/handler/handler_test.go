package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kantor-wallet/internal/adapter/http/dto"
	"kantor-wallet/internal/adapter/http/middleware"
	"kantor-wallet/internal/core/domain"
	"kantor-wallet/internal/core/ports"
	"kantor-wallet/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Service stubs ---

type stubAuthService struct {
	registerFn func(ctx context.Context, req ports.RegisterRequest) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, time.Time, error)
}

func (s *stubAuthService) Register(ctx context.Context, req ports.RegisterRequest) (*domain.User, error) {
	return s.registerFn(ctx, req)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	return s.loginFn(ctx, email, password)
}

type stubLedgerService struct {
	depositFn   func(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*ports.ExchangeResult, error)
	buyFn       func(ctx context.Context, req ports.ExchangeRequest) (*ports.ExchangeResult, error)
	sellFn      func(ctx context.Context, req ports.ExchangeRequest) (*ports.ExchangeResult, error)
	getWalletFn func(ctx context.Context, userID uuid.UUID) (*domain.WalletSnapshot, error)
}

func (s *stubLedgerService) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*ports.ExchangeResult, error) {
	return s.depositFn(ctx, userID, amount)
}

func (s *stubLedgerService) Buy(ctx context.Context, req ports.ExchangeRequest) (*ports.ExchangeResult, error) {
	return s.buyFn(ctx, req)
}

func (s *stubLedgerService) Sell(ctx context.Context, req ports.ExchangeRequest) (*ports.ExchangeResult, error) {
	return s.sellFn(ctx, req)
}

func (s *stubLedgerService) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletSnapshot, error) {
	return s.getWalletFn(ctx, userID)
}

type stubRateService struct {
	latestFn    func(ctx context.Context) ([]domain.ExchangeRate, error)
	latestForFn func(ctx context.Context, currency string) (*domain.ExchangeRate, error)
	byDateFn    func(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error)
	historyFn   func(ctx context.Context, currency string, from, to time.Time) ([]domain.ExchangeRate, error)
}

func (s *stubRateService) Refresh(ctx context.Context) (int, error) { return 0, nil }

func (s *stubRateService) Latest(ctx context.Context) ([]domain.ExchangeRate, error) {
	return s.latestFn(ctx)
}

func (s *stubRateService) LatestFor(ctx context.Context, currency string) (*domain.ExchangeRate, error) {
	return s.latestForFn(ctx, currency)
}

func (s *stubRateService) ByDate(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error) {
	return s.byDateFn(ctx, date)
}

func (s *stubRateService) History(ctx context.Context, currency string, from, to time.Time) ([]domain.ExchangeRate, error) {
	return s.historyFn(ctx, currency, from, to)
}

type stubHistoryService struct {
	listFn func(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error)
}

func (s *stubHistoryService) ListForUser(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	return s.listFn(ctx, params)
}

// --- Helpers ---

func testContext(t *testing.T, method, target string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func authedContext(t *testing.T, method, target string, body any, userID uuid.UUID) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, w := testContext(t, method, target, body)
	c.Set(middleware.CtxUserID, userID)
	return c, w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "body: %s", w.Body.String())
	return data
}

func testSnapshot(userID uuid.UUID) *domain.WalletSnapshot {
	return &domain.WalletSnapshot{
		Wallet: domain.Wallet{
			ID:         uuid.New(),
			UserID:     userID,
			BalancePLN: decimal.RequireFromString("150.00"),
		},
		Balances: []domain.CurrencyBalance{
			{CurrencyCode: "EUR", Amount: decimal.RequireFromString("10.00")},
			{CurrencyCode: "USD", Amount: decimal.RequireFromString("25.00")},
		},
	}
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	userID := uuid.New()
	auth := &stubAuthService{
		registerFn: func(ctx context.Context, req ports.RegisterRequest) (*domain.User, error) {
			assert.Equal(t, "jan@example.com", req.Email)
			return &domain.User{
				ID:        userID,
				Email:     "jan@example.com",
				FirstName: "Jan",
				LastName:  "Kowalski",
			}, nil
		},
	}
	h := NewAuthHandler(auth)

	c, w := testContext(t, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:     "jan@example.com",
		Password:  "password123",
		FirstName: "Jan",
		LastName:  "Kowalski",
	})
	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, userID.String(), data["user_id"])
	assert.Equal(t, "jan@example.com", data["email"])
}

func TestRegister_ValidationError(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, w := testContext(t, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
	})
	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_000")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	auth := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, time.Time, error) {
			return "", time.Time{}, apperror.ErrInvalidCredentials()
		},
	}
	h := NewAuthHandler(auth)

	c, w := testContext(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "jan@example.com",
		Password: "wrong",
	})
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_001")
}

// --- Wallet Handler Tests ---

func TestGetWallet_Success(t *testing.T) {
	userID := uuid.New()
	ledger := &stubLedgerService{
		getWalletFn: func(ctx context.Context, id uuid.UUID) (*domain.WalletSnapshot, error) {
			assert.Equal(t, userID, id)
			return testSnapshot(userID), nil
		},
	}
	h := NewWalletHandler(ledger)

	c, w := authedContext(t, http.MethodGet, "/api/v1/wallet", nil, userID)
	h.GetWallet(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "150.00", data["balance_pln"])
	balances := data["balances"].([]interface{})
	require.Len(t, balances, 2)
	first := balances[0].(map[string]interface{})
	assert.Equal(t, "EUR", first["currency"])
}

func TestGetWallet_Unauthenticated(t *testing.T) {
	h := NewWalletHandler(&stubLedgerService{})

	c, w := testContext(t, http.MethodGet, "/api/v1/wallet", nil)
	h.GetWallet(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_003")
}

func TestDeposit_ReturnsUpdatedSnapshot(t *testing.T) {
	userID := uuid.New()
	var deposited decimal.Decimal
	ledger := &stubLedgerService{
		depositFn: func(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*ports.ExchangeResult, error) {
			deposited = amount
			return &ports.ExchangeResult{
				Transaction:   &domain.Transaction{ID: 1, Type: domain.TransactionTypeDeposit},
				NewBalancePLN: decimal.RequireFromString("150.00"),
			}, nil
		},
		getWalletFn: func(ctx context.Context, id uuid.UUID) (*domain.WalletSnapshot, error) {
			return testSnapshot(userID), nil
		},
	}
	h := NewWalletHandler(ledger)

	c, w := authedContext(t, http.MethodPost, "/api/v1/wallet/deposit", gin.H{"amount": "150.00"}, userID)
	h.Deposit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decimal.RequireFromString("150.00").Equal(deposited))
	data := decodeData(t, w)
	assert.Equal(t, "150.00", data["balance_pln"])
}

func TestDeposit_InvalidAmount(t *testing.T) {
	userID := uuid.New()
	ledger := &stubLedgerService{
		depositFn: func(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*ports.ExchangeResult, error) {
			return nil, apperror.ErrInvalidAmount()
		},
	}
	h := NewWalletHandler(ledger)

	c, w := authedContext(t, http.MethodPost, "/api/v1/wallet/deposit", gin.H{"amount": "-5.00"}, userID)
	h.Deposit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_001")
}

// --- Exchange Handler Tests ---

func TestBuy_Success(t *testing.T) {
	userID := uuid.New()
	rateDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	ledger := &stubLedgerService{
		buyFn: func(ctx context.Context, req ports.ExchangeRequest) (*ports.ExchangeResult, error) {
			assert.Equal(t, "USD", req.Currency)
			position := decimal.RequireFromString("25.00")
			return &ports.ExchangeResult{
				Transaction: &domain.Transaction{
					ID:        7,
					Type:      domain.TransactionTypeBuy,
					AmountPLN: decimal.RequireFromString("-100.00"),
					Exchange: &domain.ExchangeDetails{
						CurrencyCode: "USD",
						Amount:       position,
						Rate:         decimal.RequireFromString("4.00"),
						RateDate:     rateDate,
					},
				},
				NewBalancePLN:      decimal.RequireFromString("50.00"),
				NewCurrencyBalance: &position,
			}, nil
		},
	}
	h := NewExchangeHandler(ledger)

	c, w := authedContext(t, http.MethodPost, "/api/v1/exchange/buy",
		dto.ExchangeRequest{Currency: "USD", Amount: decimal.RequireFromString("25.00")}, userID)
	h.Buy(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "50.00", data["balance_pln"])
	assert.Equal(t, "25.00", data["currency_balance"])
	tx := data["transaction"].(map[string]interface{})
	assert.Equal(t, "BUY", tx["type"])
	assert.Equal(t, "-100.00", tx["amount_pln"])
	assert.Equal(t, "2025-06-02", tx["rate_date"])
}

func TestBuy_InsufficientFunds(t *testing.T) {
	ledger := &stubLedgerService{
		buyFn: func(ctx context.Context, req ports.ExchangeRequest) (*ports.ExchangeResult, error) {
			return nil, apperror.ErrInsufficientFunds()
		},
	}
	h := NewExchangeHandler(ledger)

	c, w := authedContext(t, http.MethodPost, "/api/v1/exchange/buy",
		dto.ExchangeRequest{Currency: "USD", Amount: decimal.RequireFromString("25.00")}, uuid.New())
	h.Buy(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "WAL_001")
}

func TestSell_InvalidCurrencyRejectedByBinding(t *testing.T) {
	h := NewExchangeHandler(&stubLedgerService{})

	c, w := authedContext(t, http.MethodPost, "/api/v1/exchange/sell",
		gin.H{"currency": "USDT", "amount": "10.00"}, uuid.New())
	h.Sell(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_000")
}

// --- Transactions Handler Tests ---

func TestListTransactions_EchoesClampedPagination(t *testing.T) {
	userID := uuid.New()
	history := &stubHistoryService{
		listFn: func(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, 200, params.Limit)
			assert.Equal(t, 0, params.Offset)
			return []domain.Transaction{
				{ID: 3, Type: domain.TransactionTypeDeposit, AmountPLN: decimal.RequireFromString("100.00")},
			}, 1, nil
		},
	}
	h := NewTransactionsHandler(history)

	c, w := authedContext(t, http.MethodGet, "/api/v1/transactions?limit=9999&offset=-2", nil, userID)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(200), data["limit"])
	assert.Equal(t, float64(0), data["offset"])
	assert.Equal(t, float64(1), data["total"])
}

func TestListTransactions_RejectsUnknownType(t *testing.T) {
	h := NewTransactionsHandler(&stubHistoryService{})

	c, w := authedContext(t, http.MethodGet, "/api/v1/transactions?type=REFUND", nil, uuid.New())
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_000")
}

func TestListTransactions_TypeFilterForwarded(t *testing.T) {
	var got *domain.TransactionType
	history := &stubHistoryService{
		listFn: func(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			got = params.Type
			return nil, 0, nil
		},
	}
	h := NewTransactionsHandler(history)

	c, w := authedContext(t, http.MethodGet, "/api/v1/transactions?type=BUY", nil, uuid.New())
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, domain.TransactionTypeBuy, *got)
}

// --- Rates Handler Tests ---

func testRate(code string, date time.Time) domain.ExchangeRate {
	return domain.ExchangeRate{
		CurrencyCode:  code,
		CurrencyName:  code + " test",
		BuyRate:       decimal.RequireFromString("4.00"),
		SellRate:      decimal.RequireFromString("4.00"),
		EffectiveDate: date,
		TableNo:       "105/A/NBP/2025",
	}
}

func TestRatesLatest_Table(t *testing.T) {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	rates := &stubRateService{
		latestFn: func(ctx context.Context) ([]domain.ExchangeRate, error) {
			return []domain.ExchangeRate{testRate("EUR", date), testRate("USD", date)}, nil
		},
	}
	h := NewRatesHandler(rates)

	c, w := testContext(t, http.MethodGet, "/api/v1/rates/latest", nil)
	h.Latest(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "2025-06-02", data["effective_date"])
	assert.Len(t, data["rates"], 2)
}

func TestRatesLatest_SingleCode(t *testing.T) {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	rates := &stubRateService{
		latestForFn: func(ctx context.Context, currency string) (*domain.ExchangeRate, error) {
			assert.Equal(t, "USD", currency)
			r := testRate("USD", date)
			return &r, nil
		},
	}
	h := NewRatesHandler(rates)

	c, w := testContext(t, http.MethodGet, "/api/v1/rates/latest?code=USD", nil)
	h.Latest(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "USD", data["currency"])
}

func TestRatesHistory_InvalidDate(t *testing.T) {
	h := NewRatesHandler(&stubRateService{})

	c, w := testContext(t, http.MethodGet, "/api/v1/rates/history?date=junk", nil)
	h.History(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_003")
}

func TestRatesHistory_MissingCode(t *testing.T) {
	h := NewRatesHandler(&stubRateService{})

	c, w := testContext(t, http.MethodGet, "/api/v1/rates/history?from=2025-06-01&to=2025-06-05", nil)
	h.History(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_000")
}

func TestRatesHistory_Range(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	rates := &stubRateService{
		historyFn: func(ctx context.Context, currency string, gotFrom, gotTo time.Time) ([]domain.ExchangeRate, error) {
			assert.Equal(t, "USD", currency)
			assert.True(t, gotFrom.Equal(from))
			assert.True(t, gotTo.Equal(to))
			return []domain.ExchangeRate{testRate("USD", from), testRate("USD", to)}, nil
		},
	}
	h := NewRatesHandler(rates)

	c, w := testContext(t, http.MethodGet, "/api/v1/rates/history?code=USD&from=2025-06-01&to=2025-06-05", nil)
	h.History(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	assert.Len(t, items, 2)
}

func TestRatesHistory_NoPublication(t *testing.T) {
	rates := &stubRateService{
		byDateFn: func(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error) {
			return nil, apperror.ErrNoPublication("2025-06-01")
		},
	}
	h := NewRatesHandler(rates)

	c, w := testContext(t, http.MethodGet, "/api/v1/rates/history?date=2025-06-01", nil)
	h.History(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_002")
}

// --- Health Check ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(ctx context.Context) error { return s.err }
func (s stubChecker) Name() string                   { return s.name }

func TestHealthCheck_Degraded(t *testing.T) {
	c, w := testContext(t, http.MethodGet, "/health", nil)
	HealthCheck(stubChecker{name: "postgres"}, stubChecker{name: "redis", err: assertError("down")})(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
	assert.Contains(t, w.Body.String(), "unhealthy")
}

type assertError string

func (e assertError) Error() string { return string(e) }
