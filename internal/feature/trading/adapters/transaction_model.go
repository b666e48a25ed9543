package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	accountsadapters "eva_exchange/internal/feature/accounts/adapters"
	stocksadapters "eva_exchange/internal/feature/stocks/adapters"
	"eva_exchange/internal/feature/trading/domain/entity"
)

// TransactionLogModel is the GORM model for the append-only transaction_logs table.
// The composite index serves the (portfolio, symbol) aggregation.
type TransactionLogModel struct {
	ID          uint                             `gorm:"primaryKey"`
	PortfolioID string                           `gorm:"size:36;not null;index:idx_transaction_logs_position,priority:1"`
	Portfolio   *accountsadapters.PortfolioModel `gorm:"foreignKey:PortfolioID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	StockSymbol string                           `gorm:"type:char(3);not null;index:idx_transaction_logs_position,priority:2"`
	Stock       *stocksadapters.StockModel       `gorm:"foreignKey:StockSymbol;references:Symbol;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Shares      int64                            `gorm:"not null"`
	Rate        decimal.Decimal                  `gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM.
func (TransactionLogModel) TableName() string {
	return "transaction_logs"
}

// ToEntity converts the GORM model to a domain entity.
func (m *TransactionLogModel) ToEntity() entity.TransactionLogEntry {
	return entity.TransactionLogEntry{
		ID:          m.ID,
		PortfolioID: m.PortfolioID,
		Symbol:      m.StockSymbol,
		Shares:      m.Shares,
		Rate:        m.Rate,
		CreatedAt:   m.CreatedAt,
	}
}

// positionRow is one aggregated (symbol, net shares) row.
type positionRow struct {
	Symbol string
	Shares int64
}
