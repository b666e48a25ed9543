// Package usecase はaccountsフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"errors"
	"fmt"

	"eva_exchange/internal/shared/apperr"
)

// MaxNameLength はユーザー表示名の最大文字数です。
const MaxNameLength = 255

var (
	// ErrInvalidName は表示名が空または長すぎる場合に返されます。
	ErrInvalidName = fmt.Errorf("%w: name must be 1 to %d characters", apperr.ErrValidation, MaxNameLength)

	// ErrInvalidPortfolioID はポートフォリオIDが空の場合に返されます。
	ErrInvalidPortfolioID = fmt.Errorf("%w: portfolio id is required", apperr.ErrValidation)

	// ErrUserNotFound は指定IDのユーザーが存在しない場合に返されます。
	ErrUserNotFound = fmt.Errorf("%w: user not found", apperr.ErrNotFound)

	// ErrPortfolioNotFound は指定されたポートフォリオが存在しない場合に返されます。
	ErrPortfolioNotFound = fmt.Errorf("%w: portfolio not found", apperr.ErrNotFound)

	// ErrUserReference はポートフォリオの所有者として存在しないユーザーが指定された場合に返されます。
	ErrUserReference = fmt.Errorf("%w: user does not exist", apperr.ErrReference)

	// ErrPortfolioExists はユーザーが既にポートフォリオを持っている場合に返されます。
	ErrPortfolioExists = fmt.Errorf("%w: user already owns a portfolio", apperr.ErrConflict)

	// ErrUnitRequired はトランザクション内でのみ実行できる操作が単独で呼ばれた場合に返されます。
	ErrUnitRequired = errors.New("accounts: operation requires an open unit of work")
)
