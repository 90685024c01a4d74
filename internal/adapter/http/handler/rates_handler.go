package handler

import (
	"time"

	"kantor-wallet/internal/adapter/http/dto"
	"kantor-wallet/internal/core/ports"
	"kantor-wallet/pkg/apperror"
	"kantor-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// RatesHandler handles exchange rate query endpoints.
type RatesHandler struct {
	rateSvc ports.RateService
}

// NewRatesHandler creates a new RatesHandler.
func NewRatesHandler(rateSvc ports.RateService) *RatesHandler {
	return &RatesHandler{rateSvc: rateSvc}
}

// Latest handles GET /api/v1/rates/latest. With ?code= it returns the
// single latest quote for that currency, otherwise the whole table.
func (h *RatesHandler) Latest(c *gin.Context) {
	if code := c.Query("code"); code != "" {
		rate, err := h.rateSvc.LatestFor(c.Request.Context(), code)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, dto.ToRateResponse(rate))
		return
	}

	rates, err := h.rateSvc.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToRateTableResponse(rates))
}

// History handles GET /api/v1/rates/history. Two forms are supported:
// ?date=YYYY-MM-DD returns the table for that date, and ?code&from&to
// returns one currency's quotes over an inclusive range, oldest first.
func (h *RatesHandler) History(c *gin.Context) {
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.Error(c, apperror.ErrInvalidDate(raw))
			return
		}

		rates, err := h.rateSvc.ByDate(c.Request.Context(), date)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, dto.ToRateTableResponse(rates))
		return
	}

	code := c.Query("code")
	if code == "" {
		response.Error(c, apperror.Validation("code is required"))
		return
	}

	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidDate(c.Query("from")))
		return
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidDate(c.Query("to")))
		return
	}

	rates, err := h.rateSvc.History(c.Request.Context(), code, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToRateResponses(rates))
}
