package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"eva_exchange/internal/app/schema"
)

func TestMigrate(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, schema.Migrate(db))

	for _, table := range []string{"users", "portfolios", "stocks", "stock_rate_logs", "transaction_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("transaction_logs", "idx_transaction_logs_position"))
	assert.True(t, db.Migrator().HasIndex("portfolios", "idx_portfolios_user_id"))
}
