// Package adapters はaccountsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"eva_exchange/internal/feature/accounts/domain/entity"
	"eva_exchange/internal/feature/accounts/usecase"
	platformdb "eva_exchange/internal/platform/db"
)

// userGorm はUserRepositoryのGORM実装です。
type userGorm struct {
	db *gorm.DB
}

var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserRepository は指定されたDB接続でuserGormの新しいインスタンスを生成します。
func NewUserRepository(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーを追加し、採番されたIDを返します。
func (r *userGorm) Create(ctx context.Context, user entity.User) (entity.User, error) {
	m := UserModel{Name: user.Name}
	if err := platformdb.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return entity.User{}, platformdb.Classify(err)
	}
	return m.ToEntity(), nil
}

// CreateBatch は複数のユーザーを1文で追加します。
func (r *userGorm) CreateBatch(ctx context.Context, users []entity.User) ([]entity.User, error) {
	if len(users) == 0 {
		return []entity.User{}, nil
	}
	models := make([]UserModel, len(users))
	for i, u := range users {
		models[i] = UserModel{Name: u.Name}
	}
	if err := platformdb.Conn(ctx, r.db).Create(&models).Error; err != nil {
		return nil, platformdb.Classify(err)
	}
	out := make([]entity.User, len(models))
	for i, m := range models {
		out[i] = m.ToEntity()
	}
	return out, nil
}

// FindByID はIDでユーザーを返します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (entity.User, error) {
	var m UserModel
	if err := platformdb.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.User{}, usecase.ErrUserNotFound
		}
		return entity.User{}, platformdb.Classify(err)
	}
	return m.ToEntity(), nil
}
