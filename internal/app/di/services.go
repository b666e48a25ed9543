// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	accountsadapters "eva_exchange/internal/feature/accounts/adapters"
	accountsentity "eva_exchange/internal/feature/accounts/domain/entity"
	accountshandler "eva_exchange/internal/feature/accounts/transport/handler"
	accountsusecase "eva_exchange/internal/feature/accounts/usecase"
	stocksadapters "eva_exchange/internal/feature/stocks/adapters"
	stocksentity "eva_exchange/internal/feature/stocks/domain/entity"
	stockshandler "eva_exchange/internal/feature/stocks/transport/handler"
	stocksusecase "eva_exchange/internal/feature/stocks/usecase"
	tradingadapters "eva_exchange/internal/feature/trading/adapters"
	tradinghandler "eva_exchange/internal/feature/trading/transport/handler"
	tradingusecase "eva_exchange/internal/feature/trading/usecase"
	"eva_exchange/internal/platform/cache"
	platformdb "eva_exchange/internal/platform/db"
	"eva_exchange/internal/platform/idgen"
	"eva_exchange/internal/platform/metrics"
)

// StocksService is the full stock rate tracker surface.
type StocksService interface {
	stockshandler.StocksUsecase
	BulkRegisterStock(ctx context.Context, symbols []string) ([]stocksentity.Stock, error)
}

// AccountsService is the full user and portfolio registry surface.
type AccountsService interface {
	accountshandler.AccountsUsecase
	tradinghandler.PortfolioFinder
	BulkRegisterUsers(ctx context.Context, names []string) ([]accountsentity.User, error)
	BulkRegisterPortfolio(ctx context.Context, userIDs []uint) ([]accountsentity.Portfolio, error)
}

// Services holds every usecase wired to one database.
type Services struct {
	Stocks   StocksService
	Accounts AccountsService
	Trading  tradinghandler.TradingUsecase
}

// Options tunes optional infrastructure. Zero values disable Redis and metrics.
type Options struct {
	Redis    *redis.Client
	QuoteTTL time.Duration
	Metrics  *metrics.Registry
}

// NewServices wires repositories, the quote cache and usecases.
func NewServices(db *gorm.DB, opts Options) *Services {
	tx := platformdb.NewTransactor(db)

	stockRepo := stocksadapters.NewStockRepository(db)
	quotes := NewQuoteCache(opts.Redis, opts.QuoteTTL, stockRepo, opts.Metrics)
	stocks := stocksusecase.NewStockUsecase(tx, stockRepo, quotes, quotes)

	portfolios := accountsadapters.NewPortfolioRepository(db)
	accounts := accountsusecase.NewAccountUsecase(tx, accountsadapters.NewUserRepository(db), portfolios, idgen.New())

	ledger := tradingusecase.NewLedger(tradingadapters.NewLedgerRepository(db), portfolios, stocks)
	var observer tradingusecase.TradeObserver
	if opts.Metrics != nil {
		observer = opts.Metrics
	}
	trading := tradingusecase.NewTradeUsecase(tx, ledger, observer)

	return &Services{Stocks: stocks, Accounts: accounts, Trading: trading}
}

// NewQuoteCache decorates the database quote reader with Redis.
// With a nil client the decorator passes reads straight through.
func NewQuoteCache(rdb *redis.Client, ttl time.Duration, inner stocksusecase.QuoteReader, m *metrics.Registry) *cache.CachingQuoteRepository {
	var observer cache.Observer
	if m != nil {
		observer = m
	}
	return cache.NewCachingQuoteRepository(rdb, ttl, inner, "quotes", observer)
}
