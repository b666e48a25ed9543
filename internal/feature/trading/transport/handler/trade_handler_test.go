package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	accountsentity "eva_exchange/internal/feature/accounts/domain/entity"
	"eva_exchange/internal/feature/trading/domain/entity"
	"eva_exchange/internal/feature/trading/transport/handler"
	"eva_exchange/internal/feature/trading/usecase"
	jwtmw "eva_exchange/internal/platform/jwt"
	"eva_exchange/internal/shared/apperr"
)

// mockTradingUsecase はTradingUsecaseインターフェースのモック実装です。
type mockTradingUsecase struct {
	BuyFunc           func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error)
	SellFunc          func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (bool, error)
	ComputeSharesFunc func(ctx context.Context, portfolioID, symbol string) (int64, error)
	HistoryFunc       func(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error)
	PositionsFunc     func(ctx context.Context, portfolioID string) ([]entity.Position, error)
}

func (m *mockTradingUsecase) Buy(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error) {
	return m.BuyFunc(ctx, portfolioID, symbol, shares, rate)
}

func (m *mockTradingUsecase) Sell(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (bool, error) {
	return m.SellFunc(ctx, portfolioID, symbol, shares, rate)
}

func (m *mockTradingUsecase) ComputeShares(ctx context.Context, portfolioID, symbol string) (int64, error) {
	return m.ComputeSharesFunc(ctx, portfolioID, symbol)
}

func (m *mockTradingUsecase) History(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error) {
	return m.HistoryFunc(ctx, portfolioID, symbol, limit)
}

func (m *mockTradingUsecase) Positions(ctx context.Context, portfolioID string) ([]entity.Position, error) {
	return m.PositionsFunc(ctx, portfolioID)
}

// mockPortfolioFinder はPortfolioFinderインターフェースのモック実装です。
type mockPortfolioFinder struct {
	owners map[string]uint
}

func (m *mockPortfolioFinder) GetPortfolio(_ context.Context, id string) (accountsentity.Portfolio, error) {
	owner, ok := m.owners[id]
	if !ok {
		return accountsentity.Portfolio{}, fmt.Errorf("%w: portfolio not found", apperr.ErrNotFound)
	}
	return accountsentity.Portfolio{ID: id, UserID: owner}, nil
}

var testTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// newRouter はテスト用ルーターを構築します。userID が0以外の場合は認証済みとして扱います。
func newRouter(uc handler.TradingUsecase, userID uint) *gin.Engine {
	h := handler.NewTradingHandler(uc, &mockPortfolioFinder{owners: map[string]uint{"pf-1": 1, "pf-2": 2}})
	r := gin.New()
	if userID != 0 {
		r.Use(func(c *gin.Context) {
			c.Set(jwtmw.ContextUserID, userID)
			c.Next()
		})
	}
	r.POST("/v1/stock/buy", h.Buy)
	r.POST("/v1/stock/sell", h.Sell)
	r.POST("/v1/stock/shares/query", h.QueryShares)
	r.GET("/v1/portfolios/:id/positions", h.Positions)
	r.GET("/v1/portfolios/:id/transactions", h.Transactions)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestTradingHandler_Buy は買い注文エンドポイントをテストします。
func TestTradingHandler_Buy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		body           string
		userID         uint
		mockBuy        func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "success: numeric rate",
			body:   `{"portfolio_id":"pf-1","symbol":"APL","shares_num":16,"rate":18.65}`,
			userID: 1,
			mockBuy: func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error) {
				assert.Equal(t, "pf-1", portfolioID)
				assert.Equal(t, "APL", symbol)
				assert.Equal(t, int64(16), shares)
				assert.Equal(t, "18.65", rate.StringFixed(2))
				return entity.TransactionLogEntry{ID: 7, PortfolioID: portfolioID, Symbol: symbol, Shares: shares, Rate: rate, CreatedAt: testTime}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"ok":true,"transaction":{"id":7,"portfolio_id":"pf-1","symbol":"APL","side":"buy","shares_num":16,"rate":"18.65","created_at":"2024-01-02T03:04:05Z"}}`,
		},
		{
			name: "success: string rate without authentication",
			body: `{"portfolio_id":"pf-2","symbol":"NZD","shares_num":1,"rate":"5"}`,
			mockBuy: func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error) {
				return entity.TransactionLogEntry{ID: 1, PortfolioID: portfolioID, Symbol: symbol, Shares: shares, Rate: rate, CreatedAt: testTime}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"ok":true,"transaction":{"id":1,"portfolio_id":"pf-2","symbol":"NZD","side":"buy","shares_num":1,"rate":"5.00","created_at":"2024-01-02T03:04:05Z"}}`,
		},
		{
			name:           "failure: missing rate",
			body:           `{"portfolio_id":"pf-1","symbol":"APL","shares_num":16}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
		{
			name:           "failure: malformed json",
			body:           `{"portfolio_id":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
		{
			name: "failure: usecase validation",
			body: `{"portfolio_id":"pf-1","symbol":"APL","shares_num":0,"rate":1}`,
			mockBuy: func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error) {
				return entity.TransactionLogEntry{}, entity.ErrInvalidShares
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   fmt.Sprintf(`{"error":%q}`, entity.ErrInvalidShares.Error()),
		},
		{
			name: "failure: unknown stock",
			body: `{"portfolio_id":"pf-1","symbol":"ZZZ","shares_num":1,"rate":1}`,
			mockBuy: func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error) {
				return entity.TransactionLogEntry{}, usecase.ErrStockNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   fmt.Sprintf(`{"error":%q}`, usecase.ErrStockNotFound.Error()),
		},
		{
			name: "failure: database error is hidden",
			body: `{"portfolio_id":"pf-1","symbol":"APL","shares_num":1,"rate":1}`,
			mockBuy: func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error) {
				return entity.TransactionLogEntry{}, errors.New("connection reset")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Internal Server Error"}`,
		},
		{
			name:           "failure: portfolio of another user",
			body:           `{"portfolio_id":"pf-2","symbol":"APL","shares_num":1,"rate":1}`,
			userID:         1,
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"error":"portfolio belongs to another user"}`,
		},
		{
			name:           "failure: unknown portfolio when authenticated",
			body:           `{"portfolio_id":"pf-9","symbol":"APL","shares_num":1,"rate":1}`,
			userID:         1,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"not found: portfolio not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockTradingUsecase{BuyFunc: tt.mockBuy}
			if uc.BuyFunc == nil {
				uc.BuyFunc = func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (entity.TransactionLogEntry, error) {
					t.Fatal("usecase must not be called")
					return entity.TransactionLogEntry{}, nil
				}
			}
			w := do(newRouter(uc, tt.userID), http.MethodPost, "/v1/stock/buy", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

// TestTradingHandler_Sell は売り注文エンドポイントをテストします。
func TestTradingHandler_Sell(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		sold           bool
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{name: "success: sold", sold: true, expectedStatus: http.StatusOK, expectedBody: `{"ok":true}`},
		{name: "failure: insufficient shares", sold: false, expectedStatus: http.StatusConflict, expectedBody: `{"ok":false,"error":"insufficient shares"}`},
		{name: "failure: unknown portfolio", err: usecase.ErrPortfolioNotFound, expectedStatus: http.StatusNotFound, expectedBody: fmt.Sprintf(`{"error":%q}`, usecase.ErrPortfolioNotFound.Error())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockTradingUsecase{
				SellFunc: func(ctx context.Context, portfolioID, symbol string, shares int64, rate decimal.Decimal) (bool, error) {
					assert.Equal(t, int64(8), shares)
					return tt.sold, tt.err
				},
			}
			w := do(newRouter(uc, 0), http.MethodPost, "/v1/stock/sell", `{"portfolio_id":"pf-1","symbol":"APL","shares_num":8,"rate":"19.00"}`)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

// TestTradingHandler_QueryShares は保有株数照会エンドポイントをテストします。
func TestTradingHandler_QueryShares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success: returns net shares", func(t *testing.T) {
		uc := &mockTradingUsecase{
			ComputeSharesFunc: func(ctx context.Context, portfolioID, symbol string) (int64, error) {
				assert.Equal(t, "pf-1", portfolioID)
				assert.Equal(t, "APL", symbol)
				return 8, nil
			},
		}
		w := do(newRouter(uc, 1), http.MethodPost, "/v1/stock/shares/query", `{"portfolio_id":"pf-1","symbol":"APL"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"shares_num":8}`, w.Body.String())
	})

	t.Run("failure: missing symbol", func(t *testing.T) {
		w := do(newRouter(&mockTradingUsecase{}, 0), http.MethodPost, "/v1/stock/shares/query", `{"portfolio_id":"pf-1"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestTradingHandler_Positions はポジション一覧エンドポイントをテストします。
func TestTradingHandler_Positions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success: lists positions", func(t *testing.T) {
		uc := &mockTradingUsecase{
			PositionsFunc: func(ctx context.Context, portfolioID string) ([]entity.Position, error) {
				return []entity.Position{{Symbol: "APL", Shares: 8}, {Symbol: "NZD", Shares: 3}}, nil
			},
		}
		w := do(newRouter(uc, 1), http.MethodGet, "/v1/portfolios/pf-1/positions", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"positions":[{"symbol":"APL","shares_num":8},{"symbol":"NZD","shares_num":3}]}`, w.Body.String())
	})

	t.Run("success: empty list renders as array", func(t *testing.T) {
		uc := &mockTradingUsecase{
			PositionsFunc: func(ctx context.Context, portfolioID string) ([]entity.Position, error) { return nil, nil },
		}
		w := do(newRouter(uc, 0), http.MethodGet, "/v1/portfolios/pf-1/positions", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"positions":[]}`, w.Body.String())
	})

	t.Run("failure: portfolio of another user", func(t *testing.T) {
		w := do(newRouter(&mockTradingUsecase{}, 2), http.MethodGet, "/v1/portfolios/pf-1/positions", "")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// TestTradingHandler_Transactions は取引履歴エンドポイントをテストします。
func TestTradingHandler_Transactions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		query         string
		expectedSym   string
		expectedLimit int
	}{
		{name: "success: defaults", query: "", expectedSym: "", expectedLimit: 0},
		{name: "success: symbol and limit", query: "?symbol=APL&limit=5", expectedSym: "APL", expectedLimit: 5},
		{name: "success: non numeric limit falls back", query: "?limit=abc", expectedSym: "", expectedLimit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockTradingUsecase{
				HistoryFunc: func(ctx context.Context, portfolioID, symbol string, limit int) ([]entity.TransactionLogEntry, error) {
					assert.Equal(t, "pf-1", portfolioID)
					assert.Equal(t, tt.expectedSym, symbol)
					assert.Equal(t, tt.expectedLimit, limit)
					return []entity.TransactionLogEntry{
						{ID: 2, PortfolioID: "pf-1", Symbol: "APL", Shares: -8, Rate: decimal.RequireFromString("19"), CreatedAt: testTime},
					}, nil
				},
			}
			w := do(newRouter(uc, 0), http.MethodGet, "/v1/portfolios/pf-1/transactions"+tt.query, "")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"transactions":[{"id":2,"portfolio_id":"pf-1","symbol":"APL","side":"sell","shares_num":-8,"rate":"19.00","created_at":"2024-01-02T03:04:05Z"}]}`, w.Body.String())
		})
	}
}
