// Package schema owns the table layout of the ledger database.
package schema

import (
	"fmt"

	"gorm.io/gorm"

	accountsadapters "eva_exchange/internal/feature/accounts/adapters"
	stocksadapters "eva_exchange/internal/feature/stocks/adapters"
	tradingadapters "eva_exchange/internal/feature/trading/adapters"
)

// Models returns every GORM model in dependency order: referenced tables first.
func Models() []any {
	return []any{
		&accountsadapters.UserModel{},
		&accountsadapters.PortfolioModel{},
		&stocksadapters.StockModel{},
		&stocksadapters.StockRateLogModel{},
		&tradingadapters.TransactionLogModel{},
	}
}

// Migrate creates or updates all tables, indexes and foreign keys.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
