// Package dto defines data transfer objects for the trading feature's HTTP transport layer.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"eva_exchange/internal/feature/trading/domain/entity"
	"eva_exchange/internal/shared/money"
)

// TradeRequest is the body of POST /v1/stock/buy and POST /v1/stock/sell.
// Rate accepts a JSON number or string; SharesNum must be a positive integer.
type TradeRequest struct {
	PortfolioID string           `json:"portfolio_id" binding:"required"`
	Symbol      string           `json:"symbol" binding:"required"`
	SharesNum   int64            `json:"shares_num"`
	Rate        *decimal.Decimal `json:"rate" binding:"required"`
}

// SharesQueryRequest is the body of POST /v1/stock/shares/query.
type SharesQueryRequest struct {
	PortfolioID string `json:"portfolio_id" binding:"required"`
	Symbol      string `json:"symbol" binding:"required"`
}

// SharesQueryResponse carries the net position.
type SharesQueryResponse struct {
	SharesNum int64 `json:"shares_num"`
}

// TransactionResponse renders one ledger entry. SharesNum is signed.
type TransactionResponse struct {
	ID          uint      `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	SharesNum   int64     `json:"shares_num"`
	Rate        string    `json:"rate"`
	CreatedAt   time.Time `json:"created_at"`
}

// BuyResponse is returned by a committed buy.
type BuyResponse struct {
	OK          bool                `json:"ok"`
	Transaction TransactionResponse `json:"transaction"`
}

// SellResponse is returned by a sell; Error is set when the position is insufficient.
type SellResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PositionResponse renders a net position.
type PositionResponse struct {
	Symbol    string `json:"symbol"`
	SharesNum int64  `json:"shares_num"`
}

// NewTransactionResponse converts an entity into its wire form.
func NewTransactionResponse(e entity.TransactionLogEntry) TransactionResponse {
	return TransactionResponse{
		ID:          e.ID,
		PortfolioID: e.PortfolioID,
		Symbol:      e.Symbol,
		Side:        string(e.Side()),
		SharesNum:   e.Shares,
		Rate:        money.FormatRate(e.Rate),
		CreatedAt:   e.CreatedAt,
	}
}

// NewTransactionResponses converts entries preserving their order.
func NewTransactionResponses(entries []entity.TransactionLogEntry) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewTransactionResponse(e))
	}
	return out
}

// NewPositionResponses converts positions preserving their order.
func NewPositionResponses(positions []entity.Position) []PositionResponse {
	out := make([]PositionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, PositionResponse{Symbol: p.Symbol, SharesNum: p.Shares})
	}
	return out
}
