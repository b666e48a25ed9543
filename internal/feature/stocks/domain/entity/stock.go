// Package entity はstocksフィーチャーのドメインエンティティを定義します。
package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"eva_exchange/internal/shared/apperr"
)

// SymbolLength は銘柄シンボルの固定長です。
const SymbolLength = 3

// ErrInvalidSymbol は銘柄シンボルが3文字の英大文字でない場合に返されます。
var ErrInvalidSymbol = fmt.Errorf("%w: symbol must be %d uppercase letters", apperr.ErrValidation, SymbolLength)

// Stock は取引可能な銘柄を表します。
// Rate と RateLogID は最新のレート履歴を指し、未設定の場合はゼロ値です。
type Stock struct {
	Symbol    string
	Name      string
	Rate      decimal.Decimal
	RateLogID uint
	CreatedAt time.Time
}

// HasRate は銘柄に最新レートが設定されているかを返します。
func (s Stock) HasRate() bool {
	return s.RateLogID != 0
}

// Quote converts the stock into its latest quote.
func (s Stock) Quote() Quote {
	return Quote{Symbol: s.Symbol, Rate: s.Rate, RateLogID: s.RateLogID}
}

// RateLogEntry は銘柄のレート履歴1件です。追記のみで更新・削除されません。
type RateLogEntry struct {
	ID        uint
	Symbol    string
	Rate      decimal.Decimal
	CreatedAt time.Time
}

// Quote は銘柄の最新レートです。RateLogID が大きいほど新しい値です。
type Quote struct {
	Symbol    string
	Rate      decimal.Decimal
	RateLogID uint
}

// ValidateSymbol は s が3文字の英大文字のみで構成されているか検証します。
func ValidateSymbol(s string) error {
	if len(s) != SymbolLength {
		return ErrInvalidSymbol
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return ErrInvalidSymbol
		}
	}
	return nil
}
