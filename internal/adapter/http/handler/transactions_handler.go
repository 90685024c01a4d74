package handler

import (
	"strconv"

	"kantor-wallet/internal/adapter/http/dto"
	"kantor-wallet/internal/core/domain"
	"kantor-wallet/internal/core/ports"
	"kantor-wallet/pkg/apperror"
	"kantor-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionsHandler handles ledger history endpoints.
type TransactionsHandler struct {
	historySvc ports.HistoryService
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(historySvc ports.HistoryService) *TransactionsHandler {
	return &TransactionsHandler{historySvc: historySvc}
}

// List handles GET /api/v1/transactions.
func (h *TransactionsHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := ports.TransactionListParams{UserID: userID}

	var err error
	if params.Limit, err = intQuery(c, "limit"); err != nil {
		response.Error(c, err)
		return
	}
	if params.Offset, err = intQuery(c, "offset"); err != nil {
		response.Error(c, err)
		return
	}

	if raw := c.Query("type"); raw != "" {
		txType := domain.TransactionType(raw)
		switch txType {
		case domain.TransactionTypeDeposit, domain.TransactionTypeBuy, domain.TransactionTypeSell:
			params.Type = &txType
		default:
			response.Error(c, apperror.Validation("type must be DEPOSIT, BUY or SELL"))
			return
		}
	}
	if currency := c.Query("currency"); currency != "" {
		params.Currency = &currency
	}
	params = params.Normalized()

	items, total, err := h.historySvc.ListForUser(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.TransactionListResponse{
		Items:  make([]dto.TransactionResponse, 0, len(items)),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for i := range items {
		resp.Items = append(resp.Items, dto.ToTransactionResponse(&items[i]))
	}

	response.OK(c, resp)
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation(name + " must be an integer")
	}
	return v, nil
}
