// Package usecase はtradingフィーチャーの取引台帳と売買オーケストレーションを実装します。
package usecase

import (
	"errors"
	"fmt"

	"eva_exchange/internal/shared/apperr"
)

var (
	// ErrInvalidPortfolioID はポートフォリオIDが空の場合に返されます。
	ErrInvalidPortfolioID = fmt.Errorf("%w: portfolio id is required", apperr.ErrValidation)

	// ErrStockNotFound は未登録の銘柄を取引しようとした場合に返されます。
	ErrStockNotFound = fmt.Errorf("%w: stock not found", apperr.ErrNotFound)

	// ErrPortfolioNotFound は存在しないポートフォリオで取引しようとした場合に返されます。
	ErrPortfolioNotFound = fmt.Errorf("%w: portfolio not found", apperr.ErrNotFound)

	// ErrUnknownReference は取引記録の参照先（ポートフォリオまたは銘柄）が存在しない場合に返されます。
	ErrUnknownReference = fmt.Errorf("%w: portfolio or stock not found", apperr.ErrNotFound)

	// ErrUnitRequired はトランザクション内でのみ実行できる操作が単独で呼ばれた場合に返されます。
	ErrUnitRequired = errors.New("trading: operation requires an open unit of work")

	// errInsufficientShares はトランザクション内の再確認で保有株数が足りなかったことを示します。
	// Sell はこれを false に変換し、呼び出し側へエラーとしては返しません。
	errInsufficientShares = errors.New("trading: insufficient shares")
)
