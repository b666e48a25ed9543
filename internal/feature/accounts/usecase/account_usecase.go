package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"eva_exchange/internal/feature/accounts/domain/entity"
	"eva_exchange/internal/shared/apperr"
)

// UserRepository はユーザーの永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type UserRepository interface {
	// Create はユーザーを追加し、採番されたIDを設定して返します。
	Create(ctx context.Context, user entity.User) (entity.User, error)
	// CreateBatch は複数のユーザーを入力順に追加します。
	CreateBatch(ctx context.Context, users []entity.User) ([]entity.User, error)
	// FindByID はユーザーを返します。存在しない場合は ErrUserNotFound を返します。
	FindByID(ctx context.Context, id uint) (entity.User, error)
}

// PortfolioRepository はポートフォリオの永続化層を抽象化します。
type PortfolioRepository interface {
	// Create はポートフォリオを追加します。所有者が存在しない場合は ErrUserReference を返します。
	Create(ctx context.Context, portfolio entity.Portfolio) (entity.Portfolio, error)
	// CreateBatch は複数のポートフォリオを入力順に追加します。
	CreateBatch(ctx context.Context, portfolios []entity.Portfolio) ([]entity.Portfolio, error)
	// FindByID はIDでポートフォリオを返します。
	FindByID(ctx context.Context, id string) (entity.Portfolio, error)
	// FindByUser はユーザーが所有するポートフォリオを返します。
	FindByUser(ctx context.Context, userID uint) (entity.Portfolio, error)
	// ListAll は登録済みのすべてのポートフォリオを返します。
	ListAll(ctx context.Context) ([]entity.Portfolio, error)
}

// IDGenerator はポートフォリオIDの供給元です。
type IDGenerator interface {
	NewID() string
}

// Transactor は作業単位（トランザクション）を開きます。
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// accountUsecase はユーザーとポートフォリオ登録のユースケースを実装します。
type accountUsecase struct {
	tx         Transactor
	users      UserRepository
	portfolios PortfolioRepository
	ids        IDGenerator
}

// NewAccountUsecase はaccountUsecaseの新しいインスタンスを生成します。
func NewAccountUsecase(tx Transactor, users UserRepository, portfolios PortfolioRepository, ids IDGenerator) *accountUsecase {
	return &accountUsecase{tx: tx, users: users, portfolios: portfolios, ids: ids}
}

// RegisterUser は表示名を検証してユーザーを登録します。
func (u *accountUsecase) RegisterUser(ctx context.Context, name string) (entity.User, error) {
	name, err := normalizeName(name)
	if err != nil {
		return entity.User{}, err
	}
	user, err := u.users.Create(ctx, entity.User{Name: name})
	if err != nil {
		return entity.User{}, apperr.Unavailable(err)
	}
	return user, nil
}

// BulkRegisterUsers は複数のユーザーを1つのトランザクションで登録します。入力順を保ちます。
func (u *accountUsecase) BulkRegisterUsers(ctx context.Context, names []string) ([]entity.User, error) {
	users := make([]entity.User, 0, len(names))
	for i, n := range names {
		name, err := normalizeName(n)
		if err != nil {
			return nil, fmt.Errorf("name #%d: %w", i, err)
		}
		users = append(users, entity.User{Name: name})
	}
	if len(users) == 0 {
		return users, nil
	}

	var out []entity.User
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		out, err = u.users.CreateBatch(ctx, users)
		return err
	})
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return out, nil
}

// GetUser はユーザーを返します。
func (u *accountUsecase) GetUser(ctx context.Context, id uint) (entity.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return entity.User{}, apperr.Unavailable(err)
	}
	return user, nil
}

// Signup はユーザーとその唯一のポートフォリオを同じトランザクションで作成します。
func (u *accountUsecase) Signup(ctx context.Context, name string) (entity.User, entity.Portfolio, error) {
	name, err := normalizeName(name)
	if err != nil {
		return entity.User{}, entity.Portfolio{}, err
	}

	var (
		user      entity.User
		portfolio entity.Portfolio
	)
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if user, err = u.users.Create(ctx, entity.User{Name: name}); err != nil {
			return err
		}
		portfolio, err = u.portfolios.Create(ctx, entity.Portfolio{ID: u.ids.NewID(), UserID: user.ID})
		return err
	})
	if err != nil {
		return entity.User{}, entity.Portfolio{}, apperr.Unavailable(err)
	}
	return user, portfolio, nil
}

// RegisterPortfolio は新しいIDでユーザーのポートフォリオを作成します。
// ユーザーが存在しなければ ErrUserReference、既に所有していれば ErrPortfolioExists を返します。
func (u *accountUsecase) RegisterPortfolio(ctx context.Context, userID uint) (entity.Portfolio, error) {
	p, err := u.portfolios.Create(ctx, entity.Portfolio{ID: u.ids.NewID(), UserID: userID})
	if err != nil {
		return entity.Portfolio{}, apperr.Unavailable(err)
	}
	return p, nil
}

// BulkRegisterPortfolio はユーザーごとにポートフォリオを作成し、入力順で返します。
// 1件でも失敗すれば全体を取り消します。
func (u *accountUsecase) BulkRegisterPortfolio(ctx context.Context, userIDs []uint) ([]entity.Portfolio, error) {
	portfolios := make([]entity.Portfolio, len(userIDs))
	for i, id := range userIDs {
		portfolios[i] = entity.Portfolio{ID: u.ids.NewID(), UserID: id}
	}
	if len(portfolios) == 0 {
		return portfolios, nil
	}

	var out []entity.Portfolio
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		out, err = u.portfolios.CreateBatch(ctx, portfolios)
		return err
	})
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return out, nil
}

// FindByUser はユーザーが所有するポートフォリオを返します。
func (u *accountUsecase) FindByUser(ctx context.Context, userID uint) (entity.Portfolio, error) {
	p, err := u.portfolios.FindByUser(ctx, userID)
	if err != nil {
		return entity.Portfolio{}, apperr.Unavailable(err)
	}
	return p, nil
}

// GetPortfolio はIDでポートフォリオを返します。
func (u *accountUsecase) GetPortfolio(ctx context.Context, id string) (entity.Portfolio, error) {
	if id == "" {
		return entity.Portfolio{}, ErrInvalidPortfolioID
	}
	p, err := u.portfolios.FindByID(ctx, id)
	if err != nil {
		return entity.Portfolio{}, apperr.Unavailable(err)
	}
	return p, nil
}

// ListPortfolios は登録済みのすべてのポートフォリオを返します。
func (u *accountUsecase) ListPortfolios(ctx context.Context) ([]entity.Portfolio, error) {
	out, err := u.portfolios.ListAll(ctx)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return out, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
