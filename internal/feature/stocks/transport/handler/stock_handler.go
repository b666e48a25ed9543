// Package handler はstocksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"eva_exchange/internal/feature/stocks/domain/entity"
	"eva_exchange/internal/feature/stocks/transport/http/dto"
	platformhttp "eva_exchange/internal/platform/http"
	"eva_exchange/internal/shared/money"
)

// StocksUsecase は銘柄操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type StocksUsecase interface {
	RegisterStock(ctx context.Context, symbol, name string, initialRate decimal.Decimal) (entity.Stock, error)
	GetStock(ctx context.Context, symbol string) (entity.Stock, error)
	ListStocks(ctx context.Context) ([]entity.Stock, error)
	LatestRate(ctx context.Context, symbol string) (decimal.Decimal, error)
	UpdateRate(ctx context.Context, symbol string, rate decimal.Decimal) (bool, error)
	RateHistory(ctx context.Context, symbol string, limit int) ([]entity.RateLogEntry, error)
}

// StocksHandler は銘柄のHTTPリクエストを処理します。
type StocksHandler struct {
	uc StocksUsecase
}

// NewStocksHandler は指定されたusecaseでStocksHandlerの新しいインスタンスを生成します。
func NewStocksHandler(uc StocksUsecase) *StocksHandler {
	return &StocksHandler{uc: uc}
}

// Create は銘柄を登録します。
//
// エンドポイント例:
// POST /v1/stocks {"symbol":"APL","name":"Apple","rate":"12.56"}
func (h *StocksHandler) Create(c *gin.Context) {
	var req dto.CreateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformhttp.BadRequest(c, "create stock", err)
		return
	}
	rate := decimal.Zero
	if req.Rate != nil {
		rate = *req.Rate
	}

	stock, err := h.uc.RegisterStock(c.Request.Context(), req.Symbol, req.Name, rate)
	if err != nil {
		platformhttp.RenderError(c, "create stock", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewStockResponse(stock))
}

// List はすべての銘柄を返します。
func (h *StocksHandler) List(c *gin.Context) {
	stocks, err := h.uc.ListStocks(c.Request.Context())
	if err != nil {
		platformhttp.RenderError(c, "list stocks", err)
		return
	}
	out := make([]dto.StockResponse, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, dto.NewStockResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"stocks": out})
}

// Get は最新レート付きの銘柄を返します。
func (h *StocksHandler) Get(c *gin.Context) {
	stock, err := h.uc.GetStock(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		platformhttp.RenderError(c, "get stock", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStockResponse(stock))
}

// Quote は最新レートのみを返します。銘柄が無い場合もレート0で200を返します。
//
// エンドポイント例:
// GET /v1/stocks/APL/quote
func (h *StocksHandler) Quote(c *gin.Context) {
	symbol := c.Param("symbol")
	if err := entity.ValidateSymbol(symbol); err != nil {
		platformhttp.RenderError(c, "get quote", err)
		return
	}
	rate, err := h.uc.LatestRate(c.Request.Context(), symbol)
	if err != nil {
		platformhttp.RenderError(c, "get quote", err)
		return
	}
	c.JSON(http.StatusOK, dto.QuoteResponse{Symbol: symbol, Rate: money.FormatRate(rate)})
}

// Rates はレート履歴を新しい順に返します。
//
// エンドポイント例:
// GET /v1/stocks/APL/rates?limit=20
func (h *StocksHandler) Rates(c *gin.Context) {
	// 不正な値は0となり、usecaseで既定値に置き換えられる
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	entries, err := h.uc.RateHistory(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		platformhttp.RenderError(c, "rate history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rates": dto.NewRateLogResponses(entries)})
}

// UpdateRate は取引を伴わずにレートを更新します。
func (h *StocksHandler) UpdateRate(c *gin.Context) {
	var req dto.UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformhttp.BadRequest(c, "update rate", err)
		return
	}
	updated, err := h.uc.UpdateRate(c.Request.Context(), c.Param("symbol"), *req.Rate)
	if err != nil {
		platformhttp.RenderError(c, "update rate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
