package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	stocksentity "eva_exchange/internal/feature/stocks/domain/entity"
	"eva_exchange/internal/feature/trading/domain/entity"
	"eva_exchange/internal/platform/metrics"
	"eva_exchange/internal/shared/apperr"
	"eva_exchange/internal/shared/money"
)

const (
	// DefaultHistoryLimit は取引履歴の既定返却件数です。
	DefaultHistoryLimit = 100
	// MaxHistoryLimit は取引履歴の最大返却件数です。
	MaxHistoryLimit = 1000
)

// Transactor は作業単位（トランザクション）を開きます。
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TradeObserver は取引の結果と所要時間を記録します。
type TradeObserver interface {
	ObserveTrade(side, outcome string, d time.Duration)
}

// tradeUsecase は売買と保有株数照会のユースケースを実装します。
type tradeUsecase struct {
	tx       Transactor
	ledger   *Ledger
	observer TradeObserver
}

// NewTradeUsecase はtradeUsecaseの新しいインスタンスを生成します。observer は nil でも構いません。
func NewTradeUsecase(tx Transactor, ledger *Ledger, observer TradeObserver) *tradeUsecase {
	return &tradeUsecase{tx: tx, ledger: ledger, observer: observer}
}

// Buy は1つのトランザクションで取引記録の追記とレート更新を行い、作成された記録を返します。
// 失敗した場合は取引記録もレートも残りません。
func (u *tradeUsecase) Buy(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error) {
	start := time.Now()
	if err := validateTrade(portfolioID, symbol, shares, rate); err != nil {
		u.observe(entity.Buy, metrics.OutcomeFailed, start)
		return entity.TransactionLogEntry{}, err
	}

	entry, err := u.trade(ctx, portfolioID, symbol, entity.Buy, shares, rate)
	if err != nil {
		u.observe(entity.Buy, metrics.OutcomeFailed, start)
		return entity.TransactionLogEntry{}, apperr.Unavailable(err)
	}
	u.observe(entity.Buy, metrics.OutcomeCommitted, start)
	return entry, nil
}

// Sell は保有株数が足りる場合に売りを記録し true を返します。
// 不足している場合は何も書き込まずに false を返し、エラーにはしません。
//
// 保有株数はトランザクション外で先に確認し、不足なら作業単位を開きません。
// 足りる場合もポートフォリオ行をロックした後に再確認するため、
// 同時の売りによって正味株数が負になることはありません。
func (u *tradeUsecase) Sell(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (bool, error) {
	start := time.Now()
	if err := validateTrade(portfolioID, symbol, shares, rate); err != nil {
		u.observe(entity.Sell, metrics.OutcomeFailed, start)
		return false, err
	}

	held, err := u.ledger.NetShares(ctx, portfolioID, symbol)
	if err != nil {
		u.observe(entity.Sell, metrics.OutcomeFailed, start)
		return false, err
	}
	if held < shares {
		u.observe(entity.Sell, metrics.OutcomeRefused, start)
		return false, nil
	}

	_, err = u.trade(ctx, portfolioID, symbol, entity.Sell, shares, rate)
	if errors.Is(err, errInsufficientShares) {
		slog.Info("sell refused after lock", "portfolio_id", portfolioID, "symbol", symbol, "shares", shares)
		u.observe(entity.Sell, metrics.OutcomeRefused, start)
		return false, nil
	}
	if err != nil {
		u.observe(entity.Sell, metrics.OutcomeFailed, start)
		return false, apperr.Unavailable(err)
	}
	u.observe(entity.Sell, metrics.OutcomeCommitted, start)
	return true, nil
}

// ComputeShares は (portfolio, symbol) の正味株数を返します。記録が無ければ0です。
func (u *tradeUsecase) ComputeShares(ctx context.Context, portfolioID, symbol string) (int64, error) {
	if portfolioID == "" {
		return 0, ErrInvalidPortfolioID
	}
	if err := stocksentity.ValidateSymbol(symbol); err != nil {
		return 0, err
	}
	return u.ledger.NetShares(ctx, portfolioID, symbol)
}

// History はポートフォリオの取引記録を新しい順に返します。symbol が空なら全銘柄です。
func (u *tradeUsecase) History(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error) {
	if portfolioID == "" {
		return nil, ErrInvalidPortfolioID
	}
	if symbol != "" {
		if err := stocksentity.ValidateSymbol(symbol); err != nil {
			return nil, err
		}
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	out, err := u.ledger.entries.History(ctx, portfolioID, symbol, limit)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return out, nil
}

// Positions はポートフォリオの銘柄ごとの正味株数を返します。
func (u *tradeUsecase) Positions(ctx context.Context, portfolioID string) ([]entity.Position, error) {
	if portfolioID == "" {
		return nil, ErrInvalidPortfolioID
	}
	out, err := u.ledger.entries.Positions(ctx, portfolioID)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return out, nil
}

// trade は1つの作業単位で台帳を更新し、コミット後にレートを公開します。
func (u *tradeUsecase) trade(ctx context.Context, portfolioID, symbol string, side entity.Side, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error) {
	var (
		entry entity.TransactionLogEntry
		quote stocksentity.Quote
	)
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		entry, quote, err = u.ledger.RecordAndRepriceWithinUnit(ctx, portfolioID, symbol, side, shares, rate)
		return err
	})
	if err != nil {
		return entity.TransactionLogEntry{}, err
	}
	u.ledger.PublishQuote(ctx, quote)
	return entry, nil
}

func (u *tradeUsecase) observe(side entity.Side, outcome string, start time.Time) {
	if u.observer != nil {
		u.observer.ObserveTrade(string(side), outcome, time.Since(start))
	}
}

func validateTrade(portfolioID, symbol string, shares int64, rate decimal.Decimal) error {
	if portfolioID == "" {
		return ErrInvalidPortfolioID
	}
	if err := stocksentity.ValidateSymbol(symbol); err != nil {
		return err
	}
	if err := entity.ValidateShares(shares); err != nil {
		return err
	}
	return money.ValidateRate(rate)
}
