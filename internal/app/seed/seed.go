// Package seed loads the demo data set used for local runs.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"eva_exchange/internal/app/schema"
	accountsentity "eva_exchange/internal/feature/accounts/domain/entity"
	stocksentity "eva_exchange/internal/feature/stocks/domain/entity"
	tradingentity "eva_exchange/internal/feature/trading/domain/entity"
	"eva_exchange/internal/shared/money"
)

// Users are the demo account holders, one portfolio each.
var Users = []string{"Bob", "Jane", "Ruby", "Lucy", "Robert"}

// Symbols are the demo stocks, registered without a rate.
var Symbols = []string{"APL", "NZD", "NYK", "BJO", "KUV"}

// Trade is one demo buy followed by a partial sell.
type Trade struct {
	Portfolio int // index into the registered portfolios
	Symbol    string
	Buy       int64
	BuyRate   string
	Sell      int64
	SellRate  string
}

// Trades leave Bob 15 APL, Jane 21 NZD and Ruby 19 NYK, 5 BJO and 3 KUV.
var Trades = []Trade{
	{Portfolio: 0, Symbol: "APL", Buy: 20, BuyRate: "18.35", Sell: 5, SellRate: "21.80"},
	{Portfolio: 1, Symbol: "NZD", Buy: 36, BuyRate: "10.01", Sell: 15, SellRate: "22.15"},
	{Portfolio: 2, Symbol: "NYK", Buy: 29, BuyRate: "10.01", Sell: 10, SellRate: "22.15"},
	{Portfolio: 2, Symbol: "BJO", Buy: 45, BuyRate: "10.01", Sell: 40, SellRate: "9.12"},
	{Portfolio: 2, Symbol: "KUV", Buy: 13, BuyRate: "10.01", Sell: 10, SellRate: "9.12"},
}

// Accounts registers users and their portfolios.
type Accounts interface {
	BulkRegisterUsers(ctx context.Context, names []string) ([]accountsentity.User, error)
	BulkRegisterPortfolio(ctx context.Context, userIDs []uint) ([]accountsentity.Portfolio, error)
}

// Stocks registers tradable symbols.
type Stocks interface {
	BulkRegisterStock(ctx context.Context, symbols []string) ([]stocksentity.Stock, error)
}

// Trader records trades.
type Trader interface {
	Buy(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (tradingentity.TransactionLogEntry, error)
	Sell(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (bool, error)
}

// Result lists what was created.
type Result struct {
	Users      []accountsentity.User
	Portfolios []accountsentity.Portfolio
	Stocks     []stocksentity.Stock
}

// Run loads the demo data into an empty, migrated database.
func Run(ctx context.Context, accounts Accounts, stocks Stocks, trader Trader) (Result, error) {
	var res Result
	var err error

	if res.Users, err = accounts.BulkRegisterUsers(ctx, Users); err != nil {
		return res, fmt.Errorf("seed users: %w", err)
	}
	if res.Stocks, err = stocks.BulkRegisterStock(ctx, Symbols); err != nil {
		return res, fmt.Errorf("seed stocks: %w", err)
	}
	ids := make([]uint, len(res.Users))
	for i, u := range res.Users {
		ids[i] = u.ID
	}
	if res.Portfolios, err = accounts.BulkRegisterPortfolio(ctx, ids); err != nil {
		return res, fmt.Errorf("seed portfolios: %w", err)
	}

	for _, t := range Trades {
		pid := res.Portfolios[t.Portfolio].ID
		buyRate, err := money.ParseRate(t.BuyRate)
		if err != nil {
			return res, err
		}
		sellRate, err := money.ParseRate(t.SellRate)
		if err != nil {
			return res, err
		}
		if _, err := trader.Buy(ctx, pid, t.Symbol, t.Buy, buyRate); err != nil {
			return res, fmt.Errorf("seed buy %s for %s: %w", t.Symbol, pid, err)
		}
		ok, err := trader.Sell(ctx, pid, t.Symbol, t.Sell, sellRate)
		if err != nil {
			return res, fmt.Errorf("seed sell %s for %s: %w", t.Symbol, pid, err)
		}
		if !ok {
			return res, fmt.Errorf("seed sell %s for %s: insufficient shares", t.Symbol, pid)
		}
	}

	slog.Info("seed loaded", "users", len(res.Users), "stocks", len(res.Stocks), "trades", len(Trades)*2)
	return res, nil
}

// Reset drops every table and migrates the schema again.
func Reset(db *gorm.DB) error {
	models := schema.Models()
	// children first
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return schema.Migrate(db)
}
