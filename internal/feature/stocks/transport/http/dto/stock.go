// Package dto defines data transfer objects for the stocks feature's HTTP transport layer.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"eva_exchange/internal/feature/stocks/domain/entity"
	"eva_exchange/internal/shared/money"
)

// CreateStockRequest is the body of POST /v1/stocks.
// Rate accepts a JSON number or string; omitted or zero registers the stock without a rate.
type CreateStockRequest struct {
	Symbol string           `json:"symbol" binding:"required"`
	Name   string           `json:"name"`
	Rate   *decimal.Decimal `json:"rate"`
}

// UpdateRateRequest is the body of PUT /v1/stocks/:symbol/rate.
type UpdateRateRequest struct {
	Rate *decimal.Decimal `json:"rate" binding:"required"`
}

// StockResponse renders a stock with its latest rate.
type StockResponse struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Rate      string    `json:"rate"`
	RateLogID uint      `json:"rate_log_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStockResponse converts an entity into its wire form.
func NewStockResponse(s entity.Stock) StockResponse {
	return StockResponse{
		Symbol:    s.Symbol,
		Name:      s.Name,
		Rate:      money.FormatRate(s.Rate),
		RateLogID: s.RateLogID,
		CreatedAt: s.CreatedAt,
	}
}

// QuoteResponse is the body of GET /v1/stocks/:symbol/quote.
type QuoteResponse struct {
	Symbol string `json:"symbol"`
	Rate   string `json:"rate"`
}

// RateLogResponse renders one rate history entry.
type RateLogResponse struct {
	ID        uint      `json:"id"`
	Symbol    string    `json:"symbol"`
	Rate      string    `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRateLogResponses converts history entries preserving their order.
func NewRateLogResponses(entries []entity.RateLogEntry) []RateLogResponse {
	out := make([]RateLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, RateLogResponse{
			ID:        e.ID,
			Symbol:    e.Symbol,
			Rate:      money.FormatRate(e.Rate),
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
