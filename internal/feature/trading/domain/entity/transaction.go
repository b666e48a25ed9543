// Package entity はtradingフィーチャーのドメインエンティティを定義します。
package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"eva_exchange/internal/shared/apperr"
)

// MaxSharesPerTrade は1回の取引で指定できる株数の上限です。
const MaxSharesPerTrade = 1_000_000_000

// ErrInvalidShares は株数が正の整数でない場合に返されます。
var ErrInvalidShares = fmt.Errorf("%w: shares must be a positive integer up to %d", apperr.ErrValidation, MaxSharesPerTrade)

// Side は取引の方向です。
type Side string

const (
	// Buy は保有株数を増やします。
	Buy Side = "buy"
	// Sell は保有株数を減らします。
	Sell Side = "sell"
)

// Delta は正の株数をこの方向の符号付き変化量に変換します。
// 符号はここでのみ決まります。
func (s Side) Delta(shares int64) int64 {
	if s == Sell {
		return -shares
	}
	return shares
}

// ValidateShares は shares が1以上上限以下であるか検証します。
func ValidateShares(shares int64) error {
	if shares <= 0 || shares > MaxSharesPerTrade {
		return ErrInvalidShares
	}
	return nil
}

// TransactionLogEntry は1件の売買記録です。追記のみで更新・削除されません。
// Shares は符号付きで、売りは負の値です。
type TransactionLogEntry struct {
	ID          uint
	PortfolioID string
	Symbol      string
	Shares      int64
	Rate        decimal.Decimal
	CreatedAt   time.Time
}

// Side は記録の符号から取引方向を返します。
func (e TransactionLogEntry) Side() Side {
	if e.Shares < 0 {
		return Sell
	}
	return Buy
}

// Position はポートフォリオの銘柄ごとの正味保有株数です。
type Position struct {
	Symbol string
	Shares int64
}
