package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountsentity "eva_exchange/internal/feature/accounts/domain/entity"
	accountsusecase "eva_exchange/internal/feature/accounts/usecase"
	stocksentity "eva_exchange/internal/feature/stocks/domain/entity"
	"eva_exchange/internal/feature/trading/domain/entity"
	"eva_exchange/internal/feature/trading/usecase"
	"eva_exchange/internal/platform/metrics"
	"eva_exchange/internal/shared/apperr"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type mockTransactor struct {
	Calls int
}

func (m *mockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

// mockLedgerRepository はLedgerRepositoryインターフェースのモック実装です。
type mockLedgerRepository struct {
	AppendFunc    func(ctx context.Context, e entity.TransactionLogEntry) (entity.TransactionLogEntry, error)
	SumSharesFunc func(ctx context.Context, portfolioID, symbol string) (int64, error)
	HistoryFunc   func(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error)
	PositionsFunc func(ctx context.Context, portfolioID string) ([]entity.Position, error)
	Appended      []entity.TransactionLogEntry
	SumCalls      int
}

func (m *mockLedgerRepository) Append(ctx context.Context, e entity.TransactionLogEntry) (entity.TransactionLogEntry, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, e)
	}
	e.ID = uint(len(m.Appended) + 1)
	m.Appended = append(m.Appended, e)
	return e, nil
}

func (m *mockLedgerRepository) SumShares(ctx context.Context, portfolioID, symbol string) (int64, error) {
	m.SumCalls++
	if m.SumSharesFunc != nil {
		return m.SumSharesFunc(ctx, portfolioID, symbol)
	}
	return 0, nil
}

func (m *mockLedgerRepository) History(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, portfolioID, symbol, limit)
	}
	return nil, nil
}

func (m *mockLedgerRepository) Positions(ctx context.Context, portfolioID string) ([]entity.Position, error) {
	if m.PositionsFunc != nil {
		return m.PositionsFunc(ctx, portfolioID)
	}
	return nil, nil
}

// mockPortfolioLocker はPortfolioLockerインターフェースのモック実装です。
type mockPortfolioLocker struct {
	LockFunc func(ctx context.Context, id string) (accountsentity.Portfolio, error)
	Locks    int
}

func (m *mockPortfolioLocker) LockForUpdate(ctx context.Context, id string) (accountsentity.Portfolio, error) {
	m.Locks++
	if m.LockFunc != nil {
		return m.LockFunc(ctx, id)
	}
	return accountsentity.Portfolio{ID: id, UserID: 1}, nil
}

// mockRateRecorder はRateRecorderインターフェースのモック実装です。
type mockRateRecorder struct {
	UpdateFunc func(ctx context.Context, symbol string, rate decimal.Decimal) (stocksentity.Quote, bool, error)
	Published  []stocksentity.Quote
}

func (m *mockRateRecorder) UpdateRateWithinUnit(ctx context.Context, symbol string, rate decimal.Decimal) (stocksentity.Quote, bool, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, symbol, rate)
	}
	return stocksentity.Quote{Symbol: symbol, Rate: rate, RateLogID: 1}, true, nil
}

func (m *mockRateRecorder) PublishQuote(ctx context.Context, quote stocksentity.Quote) {
	m.Published = append(m.Published, quote)
}

// mockObserver は記録された取引結果を保持します。
type mockObserver struct {
	Outcomes []string
}

func (m *mockObserver) ObserveTrade(side, outcome string, d time.Duration) {
	m.Outcomes = append(m.Outcomes, side+":"+outcome)
}

type fixture struct {
	tx       *mockTransactor
	entries  *mockLedgerRepository
	locker   *mockPortfolioLocker
	rates    *mockRateRecorder
	observer *mockObserver
}

func newFixture() *fixture {
	return &fixture{
		tx:       &mockTransactor{},
		entries:  &mockLedgerRepository{},
		locker:   &mockPortfolioLocker{},
		rates:    &mockRateRecorder{},
		observer: &mockObserver{},
	}
}

func (f *fixture) usecase() interface {
	Buy(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error)
	Sell(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (bool, error)
	ComputeShares(ctx context.Context, portfolioID, symbol string) (int64, error)
	History(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error)
	Positions(ctx context.Context, portfolioID string) ([]entity.Position, error)
} {
	return usecase.NewTradeUsecase(f.tx, usecase.NewLedger(f.entries, f.locker, f.rates), f.observer)
}

func TestTradeUsecase_Buy(t *testing.T) {
	t.Parallel()

	t.Run("success: appends positive delta and publishes after commit", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		got, err := f.usecase().Buy(context.Background(), "pf-1", "APL", 16, dec("18.65"))
		require.NoError(t, err)

		assert.Equal(t, int64(16), got.Shares)
		assert.Equal(t, entity.Buy, got.Side())
		assert.Equal(t, 1, f.tx.Calls)
		assert.Equal(t, 1, f.locker.Locks)
		assert.Zero(t, f.entries.SumCalls, "buy never checks the position")
		require.Len(t, f.rates.Published, 1)
		assert.True(t, dec("18.65").Equal(f.rates.Published[0].Rate))
		assert.Equal(t, []string{"buy:" + metrics.OutcomeCommitted}, f.observer.Outcomes)
	})

	tests := []struct {
		name      string
		portfolio string
		symbol    string
		shares    int64
		rate      string
		setup     func(f *fixture)
		wantErr   error
	}{
		{name: "failure: empty portfolio", portfolio: "", symbol: "APL", shares: 1, rate: "1", wantErr: usecase.ErrInvalidPortfolioID},
		{name: "failure: lowercase symbol", portfolio: "pf-1", symbol: "apl", shares: 1, rate: "1", wantErr: stocksentity.ErrInvalidSymbol},
		{name: "failure: zero shares", portfolio: "pf-1", symbol: "APL", shares: 0, rate: "1", wantErr: entity.ErrInvalidShares},
		{name: "failure: negative shares", portfolio: "pf-1", symbol: "APL", shares: -2, rate: "1", wantErr: entity.ErrInvalidShares},
		{name: "failure: three decimals", portfolio: "pf-1", symbol: "APL", shares: 1, rate: "18.655", wantErr: apperr.ErrValidation},
		{name: "failure: negative rate", portfolio: "pf-1", symbol: "APL", shares: 1, rate: "-0.01", wantErr: apperr.ErrValidation},
		{
			name: "failure: unknown portfolio", portfolio: "pf-x", symbol: "APL", shares: 1, rate: "1",
			setup: func(f *fixture) {
				f.locker.LockFunc = func(ctx context.Context, id string) (accountsentity.Portfolio, error) {
					return accountsentity.Portfolio{}, accountsusecase.ErrPortfolioNotFound
				}
			},
			wantErr: usecase.ErrPortfolioNotFound,
		},
		{
			name: "failure: append hits missing stock", portfolio: "pf-1", symbol: "SYM", shares: 1, rate: "1",
			setup: func(f *fixture) {
				f.entries.AppendFunc = func(ctx context.Context, e entity.TransactionLogEntry) (entity.TransactionLogEntry, error) {
					return entity.TransactionLogEntry{}, usecase.ErrUnknownReference
				}
			},
			wantErr: usecase.ErrStockNotFound,
		},
		{
			name: "failure: rate update reports missing stock", portfolio: "pf-1", symbol: "SYM", shares: 1, rate: "1",
			setup: func(f *fixture) {
				f.rates.UpdateFunc = func(ctx context.Context, symbol string, rate decimal.Decimal) (stocksentity.Quote, bool, error) {
					return stocksentity.Quote{}, false, nil
				}
			},
			wantErr: usecase.ErrStockNotFound,
		},
		{
			name: "failure: store down", portfolio: "pf-1", symbol: "APL", shares: 1, rate: "1",
			setup: func(f *fixture) {
				f.entries.AppendFunc = func(ctx context.Context, e entity.TransactionLogEntry) (entity.TransactionLogEntry, error) {
					return entity.TransactionLogEntry{}, ErrDB
				}
			},
			wantErr: apperr.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.usecase().Buy(context.Background(), tt.portfolio, tt.symbol, tt.shares, dec(tt.rate))

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.rates.Published, "nothing is published for a failed trade")
			assert.Equal(t, []string{"buy:" + metrics.OutcomeFailed}, f.observer.Outcomes)
		})
	}
}

func TestTradeUsecase_Sell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		held         []int64
		shares       int64
		want         bool
		wantTx       int
		wantAppended bool
		wantOutcome  string
	}{
		{name: "success: enough shares", held: []int64{20, 20}, shares: 6, want: true, wantTx: 1, wantAppended: true, wantOutcome: metrics.OutcomeCommitted},
		{name: "success: sell entire position", held: []int64{6, 6}, shares: 6, want: true, wantTx: 1, wantAppended: true, wantOutcome: metrics.OutcomeCommitted},
		{name: "refused: pre-check opens no unit", held: []int64{16}, shares: 20, want: false, wantTx: 0, wantOutcome: metrics.OutcomeRefused},
		{name: "refused: position shrank before the lock", held: []int64{10, 2}, shares: 5, want: false, wantTx: 1, wantOutcome: metrics.OutcomeRefused},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			f.entries.SumSharesFunc = func(ctx context.Context, portfolioID, symbol string) (int64, error) {
				return tt.held[f.entries.SumCalls-1], nil
			}

			got, err := f.usecase().Sell(context.Background(), "pf-1", "APL", tt.shares, dec("17.11"))
			require.NoError(t, err)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantTx, f.tx.Calls)
			assert.Equal(t, []string{"sell:" + tt.wantOutcome}, f.observer.Outcomes)
			if !tt.wantAppended {
				assert.Empty(t, f.entries.Appended)
				assert.Empty(t, f.rates.Published)
				return
			}
			require.Len(t, f.entries.Appended, 1)
			assert.Equal(t, -tt.shares, f.entries.Appended[0].Shares)
			assert.Len(t, f.rates.Published, 1)
		})
	}
}

func TestTradeUsecase_Sell_Errors(t *testing.T) {
	t.Parallel()

	t.Run("failure: pre-check store down", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.entries.SumSharesFunc = func(ctx context.Context, portfolioID, symbol string) (int64, error) {
			return 0, ErrDB
		}
		got, err := f.usecase().Sell(context.Background(), "pf-1", "APL", 1, dec("1"))
		assert.False(t, got)
		assert.ErrorIs(t, err, apperr.ErrUnavailable)
		assert.ErrorIs(t, err, ErrDB)
	})

	t.Run("failure: invalid shares", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		got, err := f.usecase().Sell(context.Background(), "pf-1", "APL", 0, dec("1"))
		assert.False(t, got)
		assert.ErrorIs(t, err, entity.ErrInvalidShares)
		assert.Zero(t, f.entries.SumCalls)
	})
}

func TestTradeUsecase_ComputeShares(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.entries.SumSharesFunc = func(ctx context.Context, portfolioID, symbol string) (int64, error) {
		if symbol == "APL" {
			return 14, nil
		}
		return 0, nil
	}
	uc := f.usecase()

	n, err := uc.ComputeShares(context.Background(), "pf-1", "APL")
	require.NoError(t, err)
	assert.Equal(t, int64(14), n)

	n, err = uc.ComputeShares(context.Background(), "pf-1", "SYM")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = uc.ComputeShares(context.Background(), "pf-1", "sym")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = uc.ComputeShares(context.Background(), "", "APL")
	assert.ErrorIs(t, err, usecase.ErrInvalidPortfolioID)
}

func TestTradeUsecase_History(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		symbol    string
		limit     int
		wantLimit int
		wantErr   error
	}{
		{name: "default limit", limit: 0, wantLimit: usecase.DefaultHistoryLimit},
		{name: "custom limit with symbol", symbol: "APL", limit: 10, wantLimit: 10},
		{name: "too large is capped", limit: usecase.MaxHistoryLimit + 1, wantLimit: usecase.MaxHistoryLimit},
		{name: "negative falls back to default", limit: -5, wantLimit: usecase.DefaultHistoryLimit},
		{name: "bad symbol", symbol: "ap", wantErr: stocksentity.ErrInvalidSymbol},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			f.entries.HistoryFunc = func(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error) {
				assert.Equal(t, tt.symbol, symbol)
				assert.Equal(t, tt.wantLimit, limit)
				return []entity.TransactionLogEntry{}, nil
			}
			_, err := f.usecase().History(context.Background(), "pf-1", tt.symbol, tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTradeUsecase_Positions(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.entries.PositionsFunc = func(ctx context.Context, portfolioID string) ([]entity.Position, error) {
		return nil, ErrDB
	}
	_, err := f.usecase().Positions(context.Background(), "pf-1")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	_, err = f.usecase().Positions(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
