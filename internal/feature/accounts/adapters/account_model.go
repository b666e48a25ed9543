package adapters

import (
	"time"

	"eva_exchange/internal/feature/accounts/domain/entity"
)

// UserModel はusersテーブルのGORMモデルです。
type UserModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName はGORM用のテーブル名を返します。
func (UserModel) TableName() string {
	return "users"
}

// ToEntity はGORMモデルをドメインエンティティに変換します。
func (m UserModel) ToEntity() entity.User {
	return entity.User{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

// PortfolioModel はportfoliosテーブルのGORMモデルです。
// user_id の一意インデックスで1ユーザー1ポートフォリオを保証します。
type PortfolioModel struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    uint       `gorm:"not null;uniqueIndex"`
	User      *UserModel `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	CreatedAt time.Time
}

// TableName はGORM用のテーブル名を返します。
func (PortfolioModel) TableName() string {
	return "portfolios"
}

// ToEntity はGORMモデルをドメインエンティティに変換します。
func (m PortfolioModel) ToEntity() entity.Portfolio {
	return entity.Portfolio{ID: m.ID, UserID: m.UserID, CreatedAt: m.CreatedAt}
}

func toPortfolioModel(p entity.Portfolio) PortfolioModel {
	return PortfolioModel{ID: p.ID, UserID: p.UserID, CreatedAt: p.CreatedAt}
}
