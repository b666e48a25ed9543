package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"eva_exchange/internal/feature/stocks/domain/entity"
)

// StockModel is the GORM model for the stocks table.
// LastRateID points at the newest row of stock_rate_logs for the symbol.
type StockModel struct {
	Symbol     string `gorm:"primaryKey;type:char(3)"`
	Name       string `gorm:"size:255;not null;default:''"`
	LastRateID *uint  `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM.
func (StockModel) TableName() string {
	return "stocks"
}

// StockRateLogModel is the GORM model for the append-only stock_rate_logs table.
type StockRateLogModel struct {
	ID          uint            `gorm:"primaryKey"`
	StockSymbol string          `gorm:"type:char(3);not null;index"`
	Stock       *StockModel     `gorm:"foreignKey:StockSymbol;references:Symbol;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Rate        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM.
func (StockRateLogModel) TableName() string {
	return "stock_rate_logs"
}

// ToEntity converts the GORM model to a domain entity.
func (m *StockRateLogModel) ToEntity() entity.RateLogEntry {
	return entity.RateLogEntry{
		ID:        m.ID,
		Symbol:    m.StockSymbol,
		Rate:      m.Rate,
		CreatedAt: m.CreatedAt,
	}
}

// stockRow is one stocks row joined with its latest rate.
type stockRow struct {
	Symbol     string
	Name       string
	LastRateID *uint
	Rate       decimal.NullDecimal
	CreatedAt  time.Time
}

func (r stockRow) toEntity() entity.Stock {
	s := entity.Stock{
		Symbol:    r.Symbol,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
	}
	if r.LastRateID != nil && r.Rate.Valid {
		s.RateLogID = *r.LastRateID
		s.Rate = r.Rate.Decimal
	}
	return s
}

func toStockModel(s entity.Stock) StockModel {
	return StockModel{Symbol: s.Symbol, Name: s.Name}
}
