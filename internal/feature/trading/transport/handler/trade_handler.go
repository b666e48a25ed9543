// Package handler はtradingフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	accountsentity "eva_exchange/internal/feature/accounts/domain/entity"
	"eva_exchange/internal/feature/trading/domain/entity"
	"eva_exchange/internal/feature/trading/transport/http/dto"
	platformhttp "eva_exchange/internal/platform/http"
	jwtmw "eva_exchange/internal/platform/jwt"
)

// TradingUsecase は売買と照会のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type TradingUsecase interface {
	Buy(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error)
	Sell(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (bool, error)
	ComputeShares(ctx context.Context, portfolioID, symbol string) (int64, error)
	History(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error)
	Positions(ctx context.Context, portfolioID string) ([]entity.Position, error)
}

// PortfolioFinder はポートフォリオの所有者確認に使います。
type PortfolioFinder interface {
	GetPortfolio(ctx context.Context, id string) (accountsentity.Portfolio, error)
}

// TradingHandler は売買のHTTPリクエストを処理します。
type TradingHandler struct {
	uc         TradingUsecase
	portfolios PortfolioFinder
}

// NewTradingHandler はTradingHandlerの新しいインスタンスを生成します。
func NewTradingHandler(uc TradingUsecase, portfolios PortfolioFinder) *TradingHandler {
	return &TradingHandler{uc: uc, portfolios: portfolios}
}

// Buy は買い注文を記録します。
//
// エンドポイント例:
// POST /v1/stock/buy {"portfolio_id":"...","symbol":"APL","shares_num":16,"rate":18.65}
func (h *TradingHandler) Buy(c *gin.Context) {
	var req dto.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformhttp.BadRequest(c, "buy", err)
		return
	}
	if !h.authorize(c, req.PortfolioID) {
		return
	}

	entry, err := h.uc.Buy(c.Request.Context(), req.PortfolioID, req.Symbol, req.SharesNum, *req.Rate)
	if err != nil {
		platformhttp.RenderError(c, "buy", err)
		return
	}
	slog.Info("buy committed", "portfolio_id", entry.PortfolioID, "symbol", entry.Symbol, "shares", entry.Shares, "rate", entry.Rate.String())
	c.JSON(http.StatusOK, dto.BuyResponse{OK: true, Transaction: dto.NewTransactionResponse(entry)})
}

// Sell は売り注文を記録します。保有株数が足りない場合は409を返します。
func (h *TradingHandler) Sell(c *gin.Context) {
	var req dto.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformhttp.BadRequest(c, "sell", err)
		return
	}
	if !h.authorize(c, req.PortfolioID) {
		return
	}

	ok, err := h.uc.Sell(c.Request.Context(), req.PortfolioID, req.Symbol, req.SharesNum, *req.Rate)
	if err != nil {
		platformhttp.RenderError(c, "sell", err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, dto.SellResponse{OK: false, Error: "insufficient shares"})
		return
	}
	slog.Info("sell committed", "portfolio_id", req.PortfolioID, "symbol", req.Symbol, "shares", req.SharesNum, "rate", req.Rate.String())
	c.JSON(http.StatusOK, dto.SellResponse{OK: true})
}

// QueryShares は (portfolio, symbol) の正味株数を返します。
func (h *TradingHandler) QueryShares(c *gin.Context) {
	var req dto.SharesQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformhttp.BadRequest(c, "shares query", err)
		return
	}
	if !h.authorize(c, req.PortfolioID) {
		return
	}

	n, err := h.uc.ComputeShares(c.Request.Context(), req.PortfolioID, req.Symbol)
	if err != nil {
		platformhttp.RenderError(c, "shares query", err)
		return
	}
	c.JSON(http.StatusOK, dto.SharesQueryResponse{SharesNum: n})
}

// Positions は銘柄ごとの正味株数を返します。
//
// エンドポイント例:
// GET /v1/portfolios/:id/positions
func (h *TradingHandler) Positions(c *gin.Context) {
	id := c.Param("id")
	if !h.authorize(c, id) {
		return
	}
	positions, err := h.uc.Positions(c.Request.Context(), id)
	if err != nil {
		platformhttp.RenderError(c, "positions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": dto.NewPositionResponses(positions)})
}

// Transactions は取引記録を新しい順に返します。
//
// エンドポイント例:
// GET /v1/portfolios/:id/transactions?symbol=APL&limit=20
func (h *TradingHandler) Transactions(c *gin.Context) {
	id := c.Param("id")
	if !h.authorize(c, id) {
		return
	}
	// 不正な値は0となり、usecaseで既定値に置き換えられる
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	entries, err := h.uc.History(c.Request.Context(), id, c.Query("symbol"), limit)
	if err != nil {
		platformhttp.RenderError(c, "transactions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": dto.NewTransactionResponses(entries)})
}

// authorize は認証済みリクエストでポートフォリオの所有者を確認します。
// 認証が無効なルートでは常に通します。拒否した場合はレスポンスを書き込み false を返します。
func (h *TradingHandler) authorize(c *gin.Context, portfolioID string) bool {
	userID, authenticated := jwtmw.UserID(c)
	if !authenticated {
		return true
	}
	p, err := h.portfolios.GetPortfolio(c.Request.Context(), portfolioID)
	if err != nil {
		platformhttp.RenderError(c, "authorize portfolio", err)
		return false
	}
	if !p.OwnedBy(userID) {
		slog.Warn("portfolio access denied", "portfolio_id", portfolioID, "user_id", userID, "remote_addr", c.ClientIP())
		c.JSON(http.StatusForbidden, platformhttp.ErrorResponse{Error: "portfolio belongs to another user"})
		return false
	}
	return true
}
