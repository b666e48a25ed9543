package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	accountsentity "eva_exchange/internal/feature/accounts/domain/entity"
	stocksentity "eva_exchange/internal/feature/stocks/domain/entity"
	"eva_exchange/internal/feature/trading/domain/entity"
	"eva_exchange/internal/shared/apperr"
)

// LedgerRepository は取引記録の永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type LedgerRepository interface {
	// Append は取引記録を追記します。参照先が無い場合は ErrUnknownReference を返します。
	Append(ctx context.Context, e entity.TransactionLogEntry) (entity.TransactionLogEntry, error)
	// SumShares は (portfolio, symbol) の符号付き株数の合計を返します。
	SumShares(ctx context.Context, portfolioID, symbol string) (int64, error)
	// History は取引記録を新しい順に返します。
	History(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error)
	// Positions は銘柄ごとの正味株数を返します。
	Positions(ctx context.Context, portfolioID string) ([]entity.Position, error)
}

// PortfolioLocker はポートフォリオ行をロックし、同じポートフォリオへの取引を直列化します。
type PortfolioLocker interface {
	LockForUpdate(ctx context.Context, id string) (accountsentity.Portfolio, error)
}

// RateRecorder は取引と同じトランザクションで銘柄のレートを更新します。
type RateRecorder interface {
	UpdateRateWithinUnit(ctx context.Context, symbol string, rate decimal.Decimal) (stocksentity.Quote, bool, error)
	PublishQuote(ctx context.Context, quote stocksentity.Quote)
}

// Ledger は追記専用の取引台帳です。取引記録とレート更新を1つの作業単位で結びつけます。
type Ledger struct {
	entries    LedgerRepository
	portfolios PortfolioLocker
	rates      RateRecorder
}

// NewLedger はLedgerの新しいインスタンスを生成します。
func NewLedger(entries LedgerRepository, portfolios PortfolioLocker, rates RateRecorder) *Ledger {
	return &Ledger{entries: entries, portfolios: portfolios, rates: rates}
}

// RecordAndRepriceWithinUnit は呼び出し側のトランザクション内で取引記録を追記し、銘柄のレートを更新します。
//
// 手順:
//   - ポートフォリオ行をロックし、同じポートフォリオへの取引を直列化
//   - 売りの場合はロック取得後に保有株数を再確認し、不足なら errInsufficientShares
//   - 符号付き株数で取引記録を追記
//   - レートを更新し、銘柄が無ければ ErrStockNotFound
//
// エラーが返った場合、呼び出し側はトランザクションをロールバックする必要があります。
// 返された Quote はコミット後に PublishQuote へ渡します。
func (l *Ledger) RecordAndRepriceWithinUnit(ctx context.Context, portfolioID, symbol string, side entity.Side, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, stocksentity.Quote, error) {
	if _, err := l.portfolios.LockForUpdate(ctx, portfolioID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return entity.TransactionLogEntry{}, stocksentity.Quote{}, ErrPortfolioNotFound
		}
		return entity.TransactionLogEntry{}, stocksentity.Quote{}, err
	}

	if side == entity.Sell {
		held, err := l.entries.SumShares(ctx, portfolioID, symbol)
		if err != nil {
			return entity.TransactionLogEntry{}, stocksentity.Quote{}, err
		}
		if held < shares {
			return entity.TransactionLogEntry{}, stocksentity.Quote{}, errInsufficientShares
		}
	}

	entry, err := l.entries.Append(ctx, entity.TransactionLogEntry{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Shares:      side.Delta(shares),
		Rate:        rate,
	})
	if err != nil {
		// ポートフォリオはロック済みなので、欠けている参照先は銘柄
		if errors.Is(err, ErrUnknownReference) {
			return entity.TransactionLogEntry{}, stocksentity.Quote{}, ErrStockNotFound
		}
		return entity.TransactionLogEntry{}, stocksentity.Quote{}, err
	}

	quote, ok, err := l.rates.UpdateRateWithinUnit(ctx, symbol, rate)
	if err != nil {
		return entity.TransactionLogEntry{}, stocksentity.Quote{}, err
	}
	if !ok {
		return entity.TransactionLogEntry{}, stocksentity.Quote{}, ErrStockNotFound
	}
	return entry, quote, nil
}

// NetShares は (portfolio, symbol) の正味株数を返します。記録が無ければ0です。
// 書き込みトランザクションの外で実行され、コミット済みのデータのみを読みます。
func (l *Ledger) NetShares(ctx context.Context, portfolioID, symbol string) (int64, error) {
	n, err := l.entries.SumShares(ctx, portfolioID, symbol)
	if err != nil {
		return 0, apperr.Unavailable(err)
	}
	return n, nil
}

// PublishQuote はコミット済みのレートを読み取り側へ伝えます。
func (l *Ledger) PublishQuote(ctx context.Context, quote stocksentity.Quote) {
	l.rates.PublishQuote(ctx, quote)
}
