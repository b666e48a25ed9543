package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eva_exchange/internal/feature/accounts/domain/entity"
	"eva_exchange/internal/feature/accounts/usecase"
	platformdb "eva_exchange/internal/platform/db"
)

// portfolioGorm はPortfolioRepositoryのGORM実装です。
type portfolioGorm struct {
	db *gorm.DB
}

var _ usecase.PortfolioRepository = (*portfolioGorm)(nil)

// NewPortfolioRepository は指定されたDB接続でportfolioGormの新しいインスタンスを生成します。
func NewPortfolioRepository(db *gorm.DB) *portfolioGorm {
	return &portfolioGorm{db: db}
}

// Create はポートフォリオを追加します。
func (r *portfolioGorm) Create(ctx context.Context, p entity.Portfolio) (entity.Portfolio, error) {
	m := toPortfolioModel(p)
	if err := platformdb.Conn(ctx, r.db).Omit(clause.Associations).Create(&m).Error; err != nil {
		return entity.Portfolio{}, mapWriteError(err)
	}
	return m.ToEntity(), nil
}

// CreateBatch は複数のポートフォリオを1文で追加します。
func (r *portfolioGorm) CreateBatch(ctx context.Context, portfolios []entity.Portfolio) ([]entity.Portfolio, error) {
	if len(portfolios) == 0 {
		return []entity.Portfolio{}, nil
	}
	models := make([]PortfolioModel, len(portfolios))
	for i, p := range portfolios {
		models[i] = toPortfolioModel(p)
	}
	if err := platformdb.Conn(ctx, r.db).Omit(clause.Associations).Create(&models).Error; err != nil {
		return nil, mapWriteError(err)
	}
	out := make([]entity.Portfolio, len(models))
	for i, m := range models {
		out[i] = m.ToEntity()
	}
	return out, nil
}

// FindByID はIDでポートフォリオを返します。
func (r *portfolioGorm) FindByID(ctx context.Context, id string) (entity.Portfolio, error) {
	return r.first(platformdb.Conn(ctx, r.db).Where("id = ?", id))
}

// FindByUser はユーザーが所有するポートフォリオを返します。
func (r *portfolioGorm) FindByUser(ctx context.Context, userID uint) (entity.Portfolio, error) {
	return r.first(platformdb.Conn(ctx, r.db).Where("user_id = ?", userID))
}

// LockForUpdate はポートフォリオ行を SELECT ... FOR NO KEY UPDATE でロックします。
// 同じポートフォリオへの取引はここで直列化されます。
func (r *portfolioGorm) LockForUpdate(ctx context.Context, id string) (entity.Portfolio, error) {
	if !platformdb.InTransaction(ctx) {
		return entity.Portfolio{}, usecase.ErrUnitRequired
	}
	return r.first(platformdb.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "NO KEY UPDATE"}).Where("id = ?", id))
}

// ListAll は作成順にすべてのポートフォリオを返します。
func (r *portfolioGorm) ListAll(ctx context.Context) ([]entity.Portfolio, error) {
	var models []PortfolioModel
	if err := platformdb.Conn(ctx, r.db).Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, platformdb.Classify(err)
	}
	out := make([]entity.Portfolio, len(models))
	for i, m := range models {
		out[i] = m.ToEntity()
	}
	return out, nil
}

func (r *portfolioGorm) first(q *gorm.DB) (entity.Portfolio, error) {
	var m PortfolioModel
	if err := q.Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Portfolio{}, usecase.ErrPortfolioNotFound
		}
		return entity.Portfolio{}, platformdb.Classify(err)
	}
	return m.ToEntity(), nil
}

func mapWriteError(err error) error {
	switch {
	case platformdb.IsForeignKeyViolation(err):
		return usecase.ErrUserReference
	case platformdb.IsDuplicateKey(err):
		return usecase.ErrPortfolioExists
	default:
		return platformdb.Classify(err)
	}
}
