package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kantor-wallet/internal/core/domain"
	"kantor-wallet/internal/core/ports"
	"kantor-wallet/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	cacheKeyLatest  = "latest"
	cacheKeyLatestF = "latest:" // + currency code
)

// RateServiceImpl implements ports.RateService. Reads go through the
// Redis cache; ingestion invalidates it.
type RateServiceImpl struct {
	rateRepo ports.RateRepository
	source   ports.RateSource
	cache    ports.RateCache
	tracked  map[string]bool
	spread   float64
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewRateService creates a new RateServiceImpl. tracked lists the
// currency codes ingested from each publication.
func NewRateService(
	rateRepo ports.RateRepository,
	source ports.RateSource,
	cache ports.RateCache,
	tracked []string,
	spreadPct float64,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *RateServiceImpl {
	trackedSet := make(map[string]bool, len(tracked))
	for _, code := range tracked {
		trackedSet[code] = true
	}
	return &RateServiceImpl{
		rateRepo: rateRepo,
		source:   source,
		cache:    cache,
		tracked:  trackedSet,
		spread:   spreadPct,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Refresh fetches the current publication and stores quotes for the
// tracked currencies. Returns the number of quotes ingested.
func (s *RateServiceImpl) Refresh(ctx context.Context) (int, error) {
	pub, err := s.source.Current(ctx)
	if err != nil {
		return 0, apperror.ErrRateSourceUnavailable(fmt.Errorf("fetch current table: %w", err))
	}

	rates := s.publicationToRates(pub)
	if len(rates) == 0 {
		return 0, nil
	}

	if err := s.rateRepo.InsertBatch(ctx, rates); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("store rates: %w", err))
	}

	s.invalidateCache(ctx, rates)

	s.log.Info().
		Str("table_no", pub.TableNo).
		Time("effective_date", pub.EffectiveDate).
		Int("count", len(rates)).
		Msg("rates ingested")

	return len(rates), nil
}

// Latest returns the most recent quote per tracked currency.
func (s *RateServiceImpl) Latest(ctx context.Context) ([]domain.ExchangeRate, error) {
	if cached, ok := s.cacheGet(ctx, cacheKeyLatest); ok {
		return cached, nil
	}

	rates, err := s.rateRepo.ListLatest(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list latest rates: %w", err))
	}

	s.cacheSet(ctx, cacheKeyLatest, rates)
	return rates, nil
}

// LatestFor returns the most recent quote for one currency.
func (s *RateServiceImpl) LatestFor(ctx context.Context, currency string) (*domain.ExchangeRate, error) {
	code, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cacheGet(ctx, cacheKeyLatestF+code); ok && len(cached) == 1 {
		return &cached[0], nil
	}

	rate, err := s.rateRepo.GetLatest(ctx, code)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get latest rate: %w", err))
	}
	if rate == nil {
		return nil, apperror.ErrRateUnavailable(code)
	}

	s.cacheSet(ctx, cacheKeyLatestF+code, []domain.ExchangeRate{*rate})
	return rate, nil
}

// ByDate returns the quotes effective on the given date. If the date is
// absent locally, the publication is fetched from the source and
// ingested. Dates with no publication report an error rather than an
// empty table.
func (s *RateServiceImpl) ByDate(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error) {
	rates, err := s.rateRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list rates by date: %w", err))
	}
	if len(rates) > 0 {
		return rates, nil
	}

	pub, err := s.source.ByDate(ctx, date)
	if err != nil {
		if errors.Is(err, ports.ErrNoPublication) {
			return nil, apperror.ErrNoPublication(date.Format("2006-01-02"))
		}
		return nil, apperror.ErrRateSourceUnavailable(fmt.Errorf("fetch table by date: %w", err))
	}

	fetched := s.publicationToRates(pub)
	if len(fetched) == 0 {
		return nil, apperror.ErrNoPublication(date.Format("2006-01-02"))
	}
	if err := s.rateRepo.InsertBatch(ctx, fetched); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("store rates: %w", err))
	}
	return fetched, nil
}

// History returns quotes for one currency within [from, to], oldest first.
func (s *RateServiceImpl) History(ctx context.Context, currency string, from, to time.Time) ([]domain.ExchangeRate, error) {
	code, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, apperror.ErrInvalidDate("from is after to")
	}

	rates, err := s.rateRepo.History(ctx, code, from, to)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("rate history: %w", err))
	}
	return rates, nil
}

func (s *RateServiceImpl) publicationToRates(pub *ports.RatePublication) []domain.ExchangeRate {
	var rates []domain.ExchangeRate
	for _, q := range pub.Quotes {
		if !s.tracked[q.Code] {
			continue
		}
		buy, sell := domain.RatesFromMid(q.Mid, s.spread)
		rates = append(rates, domain.ExchangeRate{
			CurrencyCode:  q.Code,
			CurrencyName:  q.Name,
			BuyRate:       buy,
			SellRate:      sell,
			EffectiveDate: pub.EffectiveDate,
			TableNo:       pub.TableNo,
		})
	}
	return rates
}

// Cache reads and writes are best-effort: a failing cache degrades to
// database reads, never to request failures.
func (s *RateServiceImpl) cacheGet(ctx context.Context, key string) ([]domain.ExchangeRate, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("rate cache read failed")
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var rates []domain.ExchangeRate
	if err := json.Unmarshal(data, &rates); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("rate cache payload corrupt")
		return nil, false
	}
	return rates, true
}

func (s *RateServiceImpl) cacheSet(ctx context.Context, key string, rates []domain.ExchangeRate) {
	data, err := json.Marshal(rates)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("rate cache write failed")
	}
}

func (s *RateServiceImpl) invalidateCache(ctx context.Context, rates []domain.ExchangeRate) {
	keys := []string{cacheKeyLatest}
	for _, r := range rates {
		keys = append(keys, cacheKeyLatestF+r.CurrencyCode)
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Msg("rate cache invalidation failed")
	}
}
