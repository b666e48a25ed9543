// Package usecase はstocksフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"errors"
	"fmt"

	"eva_exchange/internal/shared/apperr"
)

// MaxNameLength は銘柄名の最大文字数です。
const MaxNameLength = 255

var (
	// ErrStockNotFound は指定シンボルの銘柄が存在しない場合に返されます。
	ErrStockNotFound = fmt.Errorf("%w: stock not found", apperr.ErrNotFound)

	// ErrStockExists は同じシンボルの銘柄が既に登録されている場合に返されます。
	ErrStockExists = fmt.Errorf("%w: stock already registered", apperr.ErrConflict)

	// ErrInvalidName は銘柄名が長すぎる場合に返されます。
	ErrInvalidName = fmt.Errorf("%w: name must be at most %d characters", apperr.ErrValidation, MaxNameLength)

	// ErrUnitRequired はトランザクション内でのみ実行できる操作が単独で呼ばれた場合に返されます。
	ErrUnitRequired = errors.New("stocks: operation requires an open unit of work")
)
