// Package adapters はtradingフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eva_exchange/internal/feature/trading/domain/entity"
	"eva_exchange/internal/feature/trading/usecase"
	platformdb "eva_exchange/internal/platform/db"
)

// ledgerGorm はLedgerRepositoryのGORM実装です。
type ledgerGorm struct {
	db *gorm.DB
}

var _ usecase.LedgerRepository = (*ledgerGorm)(nil)

// NewLedgerRepository は指定されたDB接続でledgerGormの新しいインスタンスを生成します。
func NewLedgerRepository(db *gorm.DB) *ledgerGorm {
	return &ledgerGorm{db: db}
}

// Append は取引記録を1件追記します。トランザクション内でのみ使えます。
func (r *ledgerGorm) Append(ctx context.Context, e entity.TransactionLogEntry) (entity.TransactionLogEntry, error) {
	if !platformdb.InTransaction(ctx) {
		return entity.TransactionLogEntry{}, usecase.ErrUnitRequired
	}
	m := TransactionLogModel{
		PortfolioID: e.PortfolioID,
		StockSymbol: e.Symbol,
		Shares:      e.Shares,
		Rate:        e.Rate,
	}
	if err := platformdb.Conn(ctx, r.db).Omit(clause.Associations).Create(&m).Error; err != nil {
		if platformdb.IsForeignKeyViolation(err) {
			return entity.TransactionLogEntry{}, usecase.ErrUnknownReference
		}
		return entity.TransactionLogEntry{}, platformdb.Classify(err)
	}
	return m.ToEntity(), nil
}

// SumShares は (portfolio, symbol) の符号付き株数を合計します。記録が無ければ0です。
// トランザクション内ではその時点のコミット済みデータと自身の書き込みを読みます。
func (r *ledgerGorm) SumShares(ctx context.Context, portfolioID, symbol string) (int64, error) {
	var total int64
	err := platformdb.Conn(ctx, r.db).
		Model(&TransactionLogModel{}).
		Select("COALESCE(SUM(shares), 0)").
		Where("portfolio_id = ? AND stock_symbol = ?", portfolioID, symbol).
		Scan(&total).Error
	if err != nil {
		return 0, platformdb.Classify(err)
	}
	return total, nil
}

// History はポートフォリオの取引記録を新しい順に返します。symbol が空なら全銘柄です。
func (r *ledgerGorm) History(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error) {
	q := platformdb.Conn(ctx, r.db).Where("portfolio_id = ?", portfolioID)
	if symbol != "" {
		q = q.Where("stock_symbol = ?", symbol)
	}
	var models []TransactionLogModel
	if err := q.Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, platformdb.Classify(err)
	}
	out := make([]entity.TransactionLogEntry, len(models))
	for i := range models {
		out[i] = models[i].ToEntity()
	}
	return out, nil
}

// Positions は銘柄ごとの正味株数をシンボル順に返します。0株の銘柄は含めません。
func (r *ledgerGorm) Positions(ctx context.Context, portfolioID string) ([]entity.Position, error) {
	var rows []positionRow
	err := platformdb.Conn(ctx, r.db).
		Model(&TransactionLogModel{}).
		Select("stock_symbol AS symbol, SUM(shares) AS shares").
		Where("portfolio_id = ?", portfolioID).
		Group("stock_symbol").
		Having("SUM(shares) <> 0").
		Order("stock_symbol ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, platformdb.Classify(err)
	}
	out := make([]entity.Position, len(rows))
	for i, row := range rows {
		out[i] = entity.Position{Symbol: row.Symbol, Shares: row.Shares}
	}
	return out, nil
}
