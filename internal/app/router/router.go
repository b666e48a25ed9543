// Package router builds the gin engine and its route table.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	accountshandler "eva_exchange/internal/feature/accounts/transport/handler"
	stockshandler "eva_exchange/internal/feature/stocks/transport/handler"
	tradinghandler "eva_exchange/internal/feature/trading/transport/handler"
	"eva_exchange/internal/platform/http/handler"
	jwtmw "eva_exchange/internal/platform/jwt"
	"eva_exchange/internal/platform/metrics"
	"eva_exchange/internal/shared/ratelimiter"
)

// Handlers are the feature handlers mounted under /v1.
type Handlers struct {
	Accounts *accountshandler.AccountsHandler
	Stocks   *stockshandler.StocksHandler
	Trading  *tradinghandler.TradingHandler
}

// Config controls middleware and platform endpoints.
type Config struct {
	AllowOrigins []string // "*" allows any origin
	JWTSecret    string
	AuthDisabled bool
	Limiter      *ratelimiter.Limiter // nil disables rate limiting
	Gatherer     prometheus.Gatherer  // nil hides /metrics
	ReadyChecks  []handler.Check
}

func NewRouter(h Handlers, cfg Config) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(corsConfig(cfg.AllowOrigins)))

	// 導通確認用
	r.Match([]string{"GET", "HEAD", "OPTIONS"}, "/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(cfg.ReadyChecks...))
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}

	v1 := r.Group("/v1")
	if cfg.Limiter != nil {
		v1.Use(cfg.Limiter.Middleware())
	}
	v1.GET("/", handler.Hello)
	v1.POST("/", handler.Greet)

	// ユーザー登録（JWT 発行）
	v1.POST("/users", h.Accounts.Signup)
	v1.GET("/users/:id", h.Accounts.GetUser)
	v1.POST("/portfolios/query", h.Accounts.QueryPortfolios)

	v1.GET("/stocks", h.Stocks.List)
	v1.GET("/stocks/:symbol", h.Stocks.Get)
	v1.GET("/stocks/:symbol/quote", h.Stocks.Quote)
	v1.GET("/stocks/:symbol/rates", h.Stocks.Rates)

	// 銘柄の登録・レート更新と売買系はトークン必須。AUTH_DISABLED のときのみ開放する
	trade := v1.Group("/")
	if !cfg.AuthDisabled {
		trade.Use(jwtmw.AuthRequired(cfg.JWTSecret))
	}
	{
		trade.POST("/stocks", h.Stocks.Create)
		trade.PUT("/stocks/:symbol/rate", h.Stocks.UpdateRate)
		trade.POST("/stock/buy", h.Trading.Buy)
		trade.POST("/stock/sell", h.Trading.Sell)
		trade.POST("/stock/shares/query", h.Trading.QueryShares)
		trade.GET("/portfolios/:id/positions", h.Trading.Positions)
		trade.GET("/portfolios/:id/transactions", h.Trading.Transactions)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
