package handler

import (
	"context"

	"kantor-wallet/internal/adapter/http/dto"
	"kantor-wallet/internal/core/ports"
	"kantor-wallet/pkg/apperror"
	"kantor-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

type exchangeOp func(ctx context.Context, req ports.ExchangeRequest) (*ports.ExchangeResult, error)

// ExchangeHandler handles currency buy and sell endpoints.
type ExchangeHandler struct {
	ledgerSvc ports.LedgerService
}

// NewExchangeHandler creates a new ExchangeHandler.
func NewExchangeHandler(ledgerSvc ports.LedgerService) *ExchangeHandler {
	return &ExchangeHandler{ledgerSvc: ledgerSvc}
}

// Buy handles POST /api/v1/exchange/buy.
func (h *ExchangeHandler) Buy(c *gin.Context) {
	h.exchange(c, h.ledgerSvc.Buy)
}

// Sell handles POST /api/v1/exchange/sell.
func (h *ExchangeHandler) Sell(c *gin.Context) {
	h.exchange(c, h.ledgerSvc.Sell)
}

func (h *ExchangeHandler) exchange(c *gin.Context, op exchangeOp) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := op(c.Request.Context(), ports.ExchangeRequest{
		UserID:   userID,
		Currency: req.Currency,
		Amount:   req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToExchangeResultResponse(result))
}
