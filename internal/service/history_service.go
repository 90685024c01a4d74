package service

import (
	"context"
	"fmt"

	"kantor-wallet/internal/core/domain"
	"kantor-wallet/internal/core/ports"
	"kantor-wallet/pkg/apperror"
)

// HistoryServiceImpl implements ports.HistoryService.
type HistoryServiceImpl struct {
	txRepo ports.TransactionRepository
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(txRepo ports.TransactionRepository) *HistoryServiceImpl {
	return &HistoryServiceImpl{txRepo: txRepo}
}

// ListForUser returns a page of the user's ledger plus the total count.
// Limit is clamped to [1, 200] with a default of 50; negative offsets
// are treated as zero.
func (s *HistoryServiceImpl) ListForUser(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	params = params.Normalized()

	if params.Currency != nil {
		code, err := normalizeCurrency(*params.Currency)
		if err != nil {
			return nil, 0, err
		}
		params.Currency = &code
	}

	txs, total, err := s.txRepo.ListByUser(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txs, total, nil
}
