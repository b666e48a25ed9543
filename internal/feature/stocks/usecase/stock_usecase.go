package usecase

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"eva_exchange/internal/feature/stocks/domain/entity"
	"eva_exchange/internal/shared/apperr"
	"eva_exchange/internal/shared/money"
)

const (
	// DefaultHistoryLimit はレート履歴の既定返却件数です。
	DefaultHistoryLimit = 50
	// MaxHistoryLimit はレート履歴の最大返却件数です。
	MaxHistoryLimit = 500
)

// StockRepository は銘柄とレート履歴の永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type StockRepository interface {
	// Create は銘柄を1件追加します。重複時は ErrStockExists を返します。
	Create(ctx context.Context, stock entity.Stock) error
	// CreateBatch は複数の銘柄を入力順に追加します。
	CreateBatch(ctx context.Context, stocks []entity.Stock) error
	// LockForUpdate は銘柄行をロックして最新レート付きで返します。トランザクション内でのみ使えます。
	LockForUpdate(ctx context.Context, symbol string) (entity.Stock, error)
	// AppendRate はレート履歴を追記し、銘柄の最新レート参照を更新します。トランザクション内でのみ使えます。
	AppendRate(ctx context.Context, symbol string, rate decimal.Decimal) (entity.RateLogEntry, error)
	// FindBySymbol は最新レート付きの銘柄を返します。
	FindBySymbol(ctx context.Context, symbol string) (entity.Stock, error)
	// List はシンボル順にすべての銘柄を返します。
	List(ctx context.Context) ([]entity.Stock, error)
	// RateHistory は新しい順にレート履歴を返します。
	RateHistory(ctx context.Context, symbol string, limit int) ([]entity.RateLogEntry, error)
}

// QuoteReader は最新レートの読み取り経路です。キャッシュで装飾されることがあります。
type QuoteReader interface {
	// LatestQuote は最新レートを返します。銘柄またはレートが無い場合はゼロ値を返します。
	LatestQuote(ctx context.Context, symbol string) (entity.Quote, error)
}

// QuotePublisher はコミット済みの最新レートを読み取り側へ伝えます。
type QuotePublisher interface {
	Publish(ctx context.Context, quote entity.Quote)
}

// Transactor は作業単位（トランザクション）を開きます。
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// stockUsecase は銘柄レート管理のユースケースを実装します。
type stockUsecase struct {
	tx        Transactor
	stocks    StockRepository
	quotes    QuoteReader
	publisher QuotePublisher
}

// NewStockUsecase はstockUsecaseの新しいインスタンスを生成します。
func NewStockUsecase(tx Transactor, stocks StockRepository, quotes QuoteReader, publisher QuotePublisher) *stockUsecase {
	return &stockUsecase{tx: tx, stocks: stocks, quotes: quotes, publisher: publisher}
}

// RegisterStock は銘柄を登録します。initialRate がゼロでなければレート履歴も1件追加し、
// 両方を同じトランザクションでコミットします。
func (u *stockUsecase) RegisterStock(ctx context.Context, symbol, name string, initialRate decimal.Decimal) (entity.Stock, error) {
	if err := entity.ValidateSymbol(symbol); err != nil {
		return entity.Stock{}, err
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return entity.Stock{}, ErrInvalidName
	}
	if err := money.ValidateRate(initialRate); err != nil {
		return entity.Stock{}, err
	}

	stock := entity.Stock{Symbol: symbol, Name: name}
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.stocks.Create(ctx, stock); err != nil {
			return err
		}
		if initialRate.IsZero() {
			return nil
		}
		entry, err := u.stocks.AppendRate(ctx, symbol, initialRate)
		if err != nil {
			return err
		}
		stock.Rate = entry.Rate
		stock.RateLogID = entry.ID
		return nil
	})
	if err != nil {
		return entity.Stock{}, apperr.Unavailable(err)
	}

	if stock.HasRate() {
		u.PublishQuote(ctx, stock.Quote())
	}
	return stock, nil
}

// BulkRegisterStock は名前もレートも持たない銘柄をまとめて登録します。1件でも失敗すれば全体を取り消します。
func (u *stockUsecase) BulkRegisterStock(ctx context.Context, symbols []string) ([]entity.Stock, error) {
	stocks := make([]entity.Stock, 0, len(symbols))
	for _, s := range symbols {
		if err := entity.ValidateSymbol(s); err != nil {
			return nil, fmt.Errorf("symbol %q: %w", s, err)
		}
		stocks = append(stocks, entity.Stock{Symbol: s})
	}
	if len(stocks) == 0 {
		return stocks, nil
	}

	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return u.stocks.CreateBatch(ctx, stocks)
	})
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return stocks, nil
}

// LatestRate は銘柄の最新レートを返します。銘柄やレートが無い場合はゼロを返し、エラーにはしません。
func (u *stockUsecase) LatestRate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q, err := u.quotes.LatestQuote(ctx, symbol)
	if err != nil {
		return decimal.Zero, apperr.Unavailable(err)
	}
	return q.Rate, nil
}

// UpdateRate は取引を伴わずに最新レートを更新します。
// 銘柄が存在しない場合や現在値と同じ場合は何もせず false を返します。
func (u *stockUsecase) UpdateRate(ctx context.Context, symbol string, rate decimal.Decimal) (bool, error) {
	if err := entity.ValidateSymbol(symbol); err != nil {
		return false, err
	}
	if err := money.ValidateRate(rate); err != nil {
		return false, err
	}

	var (
		quote   entity.Quote
		updated bool
	)
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := u.stocks.LockForUpdate(ctx, symbol)
		if errors.Is(err, ErrStockNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if current.Rate.Equal(rate) {
			return nil
		}
		quote, updated, err = u.appendRate(ctx, symbol, rate)
		return err
	})
	if err != nil {
		return false, apperr.Unavailable(err)
	}

	if updated {
		u.PublishQuote(ctx, quote)
	}
	return updated, nil
}

// UpdateRateWithinUnit は呼び出し側のトランザクション内でレート履歴を追記します。
// 銘柄が存在しない場合は false を返すので、呼び出し側はトランザクションを中断する必要があります。
// 読み取り側への通知はコミット後に呼び出し側が行います。
func (u *stockUsecase) UpdateRateWithinUnit(ctx context.Context, symbol string, rate decimal.Decimal) (entity.Quote, bool, error) {
	if _, err := u.stocks.LockForUpdate(ctx, symbol); err != nil {
		if errors.Is(err, ErrStockNotFound) {
			return entity.Quote{}, false, nil
		}
		return entity.Quote{}, false, err
	}
	return u.appendRate(ctx, symbol, rate)
}

func (u *stockUsecase) appendRate(ctx context.Context, symbol string, rate decimal.Decimal) (entity.Quote, bool, error) {
	entry, err := u.stocks.AppendRate(ctx, symbol, rate)
	if err != nil {
		return entity.Quote{}, false, err
	}
	return entity.Quote{Symbol: symbol, Rate: entry.Rate, RateLogID: entry.ID}, true, nil
}

// PublishQuote はコミット済みのレートを読み取り側へ伝えます。
func (u *stockUsecase) PublishQuote(ctx context.Context, quote entity.Quote) {
	if u.publisher != nil {
		u.publisher.Publish(ctx, quote)
	}
}

// GetStock は最新レート付きの銘柄を返します。
func (u *stockUsecase) GetStock(ctx context.Context, symbol string) (entity.Stock, error) {
	if err := entity.ValidateSymbol(symbol); err != nil {
		return entity.Stock{}, err
	}
	s, err := u.stocks.FindBySymbol(ctx, symbol)
	if err != nil {
		return entity.Stock{}, apperr.Unavailable(err)
	}
	return s, nil
}

// ListStocks はすべての銘柄を返します。
func (u *stockUsecase) ListStocks(ctx context.Context) ([]entity.Stock, error) {
	out, err := u.stocks.List(ctx)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return out, nil
}

// RateHistory は銘柄のレート履歴を新しい順に返します。
func (u *stockUsecase) RateHistory(ctx context.Context, symbol string, limit int) ([]entity.RateLogEntry, error) {
	if err := entity.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	out, err := u.stocks.RateHistory(ctx, symbol, limit)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return out, nil
}
