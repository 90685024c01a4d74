package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"kantor-wallet/internal/core/domain"
	"kantor-wallet/internal/core/ports"
	"kantor-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// LedgerServiceImpl implements ports.LedgerService.
//
// Each operation resolves rates up front, then runs balance moves and the
// ledger append inside one database transaction. The debit guard lives in
// the repository's conditional UPDATE, so concurrent spends against the
// same balance can never drive it negative: the losing request simply
// matches no row and is rejected.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	rateRepo   ports.RateRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	rateRepo ports.RateRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		rateRepo:   rateRepo,
		transactor: transactor,
		log:        log,
	}
}

// Deposit credits PLN to the user's wallet and appends a DEPOSIT entry.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, userID uuid.UUID, amountPLN decimal.Decimal) (*ports.ExchangeResult, error) {
	if err := validateAmount(amountPLN); err != nil {
		return nil, err
	}

	wallet, err := s.getWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	newBalance, err := s.walletRepo.AddToBalancePLN(ctx, dbTx, wallet.ID, amountPLN)
	if err != nil {
		return nil, storageErr("credit balance", err)
	}

	record := domain.NewDepositRecord(wallet.ID, userID, amountPLN)
	if err := s.txRepo.Create(ctx, dbTx, record); err != nil {
		return nil, storageErr("create transaction", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageErr("commit tx", err)
	}

	s.log.Info().
		Int64("tx_id", record.ID).
		Str("user_id", userID.String()).
		Str("amount_pln", amountPLN.String()).
		Msg("deposit processed")

	return &ports.ExchangeResult{Transaction: record, NewBalancePLN: newBalance}, nil
}

// Buy purchases foreign currency with PLN at the house sell rate.
func (s *LedgerServiceImpl) Buy(ctx context.Context, req ports.ExchangeRequest) (*ports.ExchangeResult, error) {
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	rate, err := s.resolveRate(ctx, currency)
	if err != nil {
		return nil, err
	}

	// The house sells foreign currency at the sell rate; cost rounded half up to grosze.
	cost := req.Amount.Mul(rate.SellRate).Round(2)

	wallet, err := s.getWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	newBalancePLN, ok, err := s.walletRepo.TryDebitBalancePLN(ctx, dbTx, wallet.ID, cost)
	if err != nil {
		return nil, storageErr("debit pln", err)
	}
	if !ok {
		return nil, apperror.ErrInsufficientFunds()
	}

	newPosition, err := s.walletRepo.UpsertCurrencyBalance(ctx, dbTx, wallet.ID, currency, req.Amount)
	if err != nil {
		return nil, storageErr("credit currency", err)
	}

	record := domain.NewBuyRecord(wallet.ID, req.UserID, cost, domain.ExchangeDetails{
		CurrencyCode: currency,
		Amount:       req.Amount,
		Rate:         rate.SellRate,
		RateDate:     rate.EffectiveDate,
	})
	if err := s.txRepo.Create(ctx, dbTx, record); err != nil {
		return nil, storageErr("create transaction", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageErr("commit tx", err)
	}

	s.log.Info().
		Int64("tx_id", record.ID).
		Str("user_id", req.UserID.String()).
		Str("currency", currency).
		Str("amount", req.Amount.String()).
		Str("cost_pln", cost.String()).
		Msg("buy processed")

	return &ports.ExchangeResult{
		Transaction:        record,
		NewBalancePLN:      newBalancePLN,
		NewCurrencyBalance: &newPosition,
	}, nil
}

// Sell converts foreign currency back to PLN at the house buy rate.
func (s *LedgerServiceImpl) Sell(ctx context.Context, req ports.ExchangeRequest) (*ports.ExchangeResult, error) {
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	rate, err := s.resolveRate(ctx, currency)
	if err != nil {
		return nil, err
	}

	// The house buys foreign currency at the buy rate.
	proceeds := req.Amount.Mul(rate.BuyRate).Round(2)

	wallet, err := s.getWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// A missing position row behaves like a zero balance here.
	newPosition, ok, err := s.walletRepo.TryDebitCurrencyBalance(ctx, dbTx, wallet.ID, currency, req.Amount)
	if err != nil {
		return nil, storageErr("debit currency", err)
	}
	if !ok {
		return nil, apperror.ErrInsufficientCurrencyFunds(currency)
	}

	newBalancePLN, err := s.walletRepo.AddToBalancePLN(ctx, dbTx, wallet.ID, proceeds)
	if err != nil {
		return nil, storageErr("credit pln", err)
	}

	record := domain.NewSellRecord(wallet.ID, req.UserID, proceeds, domain.ExchangeDetails{
		CurrencyCode: currency,
		Amount:       req.Amount,
		Rate:         rate.BuyRate,
		RateDate:     rate.EffectiveDate,
	})
	if err := s.txRepo.Create(ctx, dbTx, record); err != nil {
		return nil, storageErr("create transaction", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageErr("commit tx", err)
	}

	s.log.Info().
		Int64("tx_id", record.ID).
		Str("user_id", req.UserID.String()).
		Str("currency", currency).
		Str("amount", req.Amount.String()).
		Str("proceeds_pln", proceeds.String()).
		Msg("sell processed")

	return &ports.ExchangeResult{
		Transaction:        record,
		NewBalancePLN:      newBalancePLN,
		NewCurrencyBalance: &newPosition,
	}, nil
}

// GetWallet returns the wallet and all foreign positions for a user.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletSnapshot, error) {
	wallet, err := s.getWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	balances, err := s.walletRepo.ListCurrencyBalances(ctx, wallet.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list balances: %w", err))
	}

	return &domain.WalletSnapshot{Wallet: *wallet, Balances: balances}, nil
}

// getWallet loads the user's wallet, provisioning an empty one on first use.
// Registration already creates a wallet, so creation here only covers
// accounts that predate that behaviour.
func (s *LedgerServiceImpl) getWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	now := time.Now()
	wallet = &domain.Wallet{
		ID:         uuid.New(),
		UserID:     userID,
		BalancePLN: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		// Another request may have provisioned it concurrently.
		existing, getErr := s.walletRepo.GetByUserID(ctx, userID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}
	return wallet, nil
}

func (s *LedgerServiceImpl) resolveRate(ctx context.Context, currency string) (*domain.ExchangeRate, error) {
	rate, err := s.rateRepo.GetLatest(ctx, currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve rate: %w", err))
	}
	if rate == nil {
		return nil, apperror.ErrRateUnavailable(currency)
	}
	return rate, nil
}

// validateAmount rejects non-positive values and sub-grosz precision.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if !amount.Round(2).Equal(amount) {
		return apperror.ErrInvalidAmount()
	}
	return nil
}

// storageErr classifies a failed storage call inside the transaction
// phase. Deadline hits surface as transient so the caller may retry the
// whole operation; the aborted unit left no partial writes.
func storageErr(op string, err error) *apperror.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.ErrStorageTimeout(fmt.Errorf("%s: %w", op, err))
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// normalizeCurrency uppercases and validates a currency code. PLN is
// rejected: it is the base currency, deposits cover it.
func normalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !currencyCodeRe.MatchString(c) {
		return "", apperror.ErrInvalidCurrency(code)
	}
	if c == domain.BaseCurrency {
		return "", apperror.Validation("use DEPOSIT for PLN")
	}
	return c, nil
}
