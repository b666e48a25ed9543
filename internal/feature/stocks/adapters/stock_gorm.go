// Package adapters はstocksフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eva_exchange/internal/feature/stocks/domain/entity"
	"eva_exchange/internal/feature/stocks/usecase"
	platformdb "eva_exchange/internal/platform/db"
)

// stockGorm はStockRepositoryとQuoteReaderのGORM実装です。
type stockGorm struct {
	db *gorm.DB
}

var (
	_ usecase.StockRepository = (*stockGorm)(nil)
	_ usecase.QuoteReader     = (*stockGorm)(nil)
)

// NewStockRepository は指定されたDB接続でstockGormの新しいインスタンスを生成します。
func NewStockRepository(db *gorm.DB) *stockGorm {
	return &stockGorm{db: db}
}

// Create は銘柄を1件追加します。
func (r *stockGorm) Create(ctx context.Context, s entity.Stock) error {
	m := toStockModel(s)
	if err := platformdb.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

// CreateBatch は複数の銘柄を1文で追加します。
func (r *stockGorm) CreateBatch(ctx context.Context, stocks []entity.Stock) error {
	if len(stocks) == 0 {
		return nil
	}
	models := make([]StockModel, len(stocks))
	for i, s := range stocks {
		models[i] = toStockModel(s)
	}
	if err := platformdb.Conn(ctx, r.db).Create(&models).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

// LockForUpdate は銘柄行を SELECT ... FOR NO KEY UPDATE でロックします。
// 同じ銘柄への同時取引はここで直列化され、レート履歴のIDがコミット順に並びます。
// 取引履歴の外部キー検査が取る KEY SHARE とは競合しません。
func (r *stockGorm) LockForUpdate(ctx context.Context, symbol string) (entity.Stock, error) {
	if !platformdb.InTransaction(ctx) {
		return entity.Stock{}, usecase.ErrUnitRequired
	}
	var m StockModel
	res := platformdb.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "NO KEY UPDATE"}).
		Where("symbol = ?", symbol).
		Limit(1).
		Find(&m)
	if res.Error != nil {
		return entity.Stock{}, platformdb.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return entity.Stock{}, usecase.ErrStockNotFound
	}

	s := entity.Stock{Symbol: m.Symbol, Name: m.Name, CreatedAt: m.CreatedAt}
	if m.LastRateID != nil {
		var log StockRateLogModel
		if err := platformdb.Conn(ctx, r.db).Where("id = ?", *m.LastRateID).Take(&log).Error; err != nil {
			return entity.Stock{}, platformdb.Classify(err)
		}
		s.RateLogID = log.ID
		s.Rate = log.Rate
	}
	return s, nil
}

// AppendRate はレート履歴を追記し、銘柄の last_rate_id を新しい行へ向けます。
func (r *stockGorm) AppendRate(ctx context.Context, symbol string, rate decimal.Decimal) (entity.RateLogEntry, error) {
	if !platformdb.InTransaction(ctx) {
		return entity.RateLogEntry{}, usecase.ErrUnitRequired
	}
	conn := platformdb.Conn(ctx, r.db)

	log := StockRateLogModel{StockSymbol: symbol, Rate: rate}
	if err := conn.Omit(clause.Associations).Create(&log).Error; err != nil {
		if platformdb.IsForeignKeyViolation(err) {
			return entity.RateLogEntry{}, usecase.ErrStockNotFound
		}
		return entity.RateLogEntry{}, platformdb.Classify(err)
	}

	res := conn.Model(&StockModel{}).Where("symbol = ?", symbol).Update("last_rate_id", log.ID)
	if res.Error != nil {
		return entity.RateLogEntry{}, platformdb.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return entity.RateLogEntry{}, usecase.ErrStockNotFound
	}
	return log.ToEntity(), nil
}

// FindBySymbol は最新レート付きの銘柄を返します。
func (r *stockGorm) FindBySymbol(ctx context.Context, symbol string) (entity.Stock, error) {
	var rows []stockRow
	if err := r.withLatestRate(ctx).Where("stocks.symbol = ?", symbol).Limit(1).Scan(&rows).Error; err != nil {
		return entity.Stock{}, platformdb.Classify(err)
	}
	if len(rows) == 0 {
		return entity.Stock{}, usecase.ErrStockNotFound
	}
	return rows[0].toEntity(), nil
}

// LatestQuote は last_rate_id 経由で最新レートを返します。履歴は走査しません。
// 銘柄もレートも無い場合はゼロ値の Quote を返します。
func (r *stockGorm) LatestQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	s, err := r.FindBySymbol(ctx, symbol)
	if errors.Is(err, usecase.ErrStockNotFound) {
		return entity.Quote{Symbol: symbol}, nil
	}
	if err != nil {
		return entity.Quote{}, err
	}
	return s.Quote(), nil
}

// List はシンボル順にすべての銘柄を返します。
func (r *stockGorm) List(ctx context.Context) ([]entity.Stock, error) {
	var rows []stockRow
	if err := r.withLatestRate(ctx).Order("stocks.symbol ASC").Scan(&rows).Error; err != nil {
		return nil, platformdb.Classify(err)
	}
	out := make([]entity.Stock, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

// RateHistory は新しい順にレート履歴を返します。
func (r *stockGorm) RateHistory(ctx context.Context, symbol string, limit int) ([]entity.RateLogEntry, error) {
	var models []StockRateLogModel
	if err := platformdb.Conn(ctx, r.db).
		Where("stock_symbol = ?", symbol).
		Order("id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, platformdb.Classify(err)
	}
	out := make([]entity.RateLogEntry, len(models))
	for i := range models {
		out[i] = models[i].ToEntity()
	}
	return out, nil
}

func (r *stockGorm) withLatestRate(ctx context.Context) *gorm.DB {
	return platformdb.Conn(ctx, r.db).
		Table("stocks").
		Select("stocks.symbol, stocks.name, stocks.last_rate_id, stocks.created_at, stock_rate_logs.rate").
		Joins("LEFT JOIN stock_rate_logs ON stock_rate_logs.id = stocks.last_rate_id")
}

func mapWriteError(err error) error {
	if platformdb.IsDuplicateKey(err) {
		return usecase.ErrStockExists
	}
	return platformdb.Classify(err)
}
