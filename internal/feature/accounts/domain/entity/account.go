// Package entity はaccountsフィーチャーのドメインエンティティを定義します。
package entity

import "time"

// User は取引口座の保有者です。登録後は変更されません。
type User struct {
	ID        uint
	Name      string
	CreatedAt time.Time
}

// Portfolio はユーザーごとに1つだけ存在する取引口座です。
// ID は外部で生成された衝突しにくい固定長の文字列です。
type Portfolio struct {
	ID        string
	UserID    uint
	CreatedAt time.Time
}

// OwnedBy はポートフォリオが指定ユーザーのものかを返します。
func (p Portfolio) OwnedBy(userID uint) bool {
	return p.UserID == userID
}
