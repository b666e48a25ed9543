// Package db provides database connection, unit-of-work and driver error helpers.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	// DriverPostgres is the production store.
	DriverPostgres = "postgres"
	// DriverSQLite is the local/demo store.
	DriverSQLite = "sqlite"

	// retryInterval は接続リトライ間隔です。
	retryInterval = 3 * time.Second
	// defaultConnectTimeout は接続リトライを諦めるまでの既定時間です。
	defaultConnectTimeout = 60 * time.Second
	// defaultMaxOpenConns はPostgres接続プールの既定上限です。
	defaultMaxOpenConns = 20
)

// Config はデータベース接続設定を保持します。
type Config struct {
	Driver         string
	URL            string // 完全なDSN。設定されていれば他の項目より優先されます。
	User           string
	Password       string
	Name           string
	Host           string
	Port           string
	SSLMode        string
	InstanceName   string // Cloud SQL インスタンス接続名
	SQLitePath     string
	ConnectTimeout time.Duration
	MaxOpenConns   int
	RunMigrations  bool
}

// Opener はDSNからgorm.DBを開く関数です。テストで差し替えます。
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Driver:         strings.ToLower(os.Getenv("DB_DRIVER")),
		URL:            os.Getenv("DATABASE_URL"),
		User:           os.Getenv("DB_USER"),
		Password:       os.Getenv("DB_PASSWORD"),
		Name:           os.Getenv("DB_NAME"),
		Host:           os.Getenv("DB_HOST"),
		Port:           os.Getenv("DB_PORT"),
		SSLMode:        os.Getenv("DB_SSLMODE"),
		InstanceName:   os.Getenv("INSTANCE_CONNECTION_NAME"),
		SQLitePath:     os.Getenv("SQLITE_PATH"),
		ConnectTimeout: defaultConnectTimeout,
		MaxOpenConns:   defaultMaxOpenConns,
		RunMigrations:  os.Getenv("RUN_MIGRATIONS") == "true",
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverPostgres
	}
	if cfg.URL == "" {
		cfg.URL = os.Getenv("POSTGRES_URI")
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "eva_exchange.db"
	}
	if v, err := time.ParseDuration(os.Getenv("DB_CONNECT_TIMEOUT")); err == nil && v > 0 {
		cfg.ConnectTimeout = v
	}
	if v, err := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS")); err == nil && v > 0 {
		cfg.MaxOpenConns = v
	}
	return cfg
}

// BuildDSN は設定から接続文字列を組み立てます。
// Postgresでは URL > Cloud SQL ソケット > TCP の順に優先します。
// SQLiteでは外部キー制約を有効にするパラメータを付与します。
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		if strings.Contains(cfg.SQLitePath, "?") {
			return cfg.SQLitePath
		}
		return cfg.SQLitePath + "?_foreign_keys=on"
	}
	if cfg.URL != "" {
		return cfg.URL
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	if cfg.InstanceName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.InstanceName, cfg.User, cfg.Password, cfg.Name, sslmode)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
}

// ConnectWithRetry は接続に成功するかtimeoutを過ぎるまでopenerを繰り返し呼びます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempt, err)
		}
		slog.Warn("db connect failed, retrying", "attempt", attempt, "error", err)
		time.Sleep(min(retryInterval, remaining))
	}
}

// Open は設定に従ってデータベースへ接続し、接続プールを構成します。
func Open(cfg Config) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)
	gcfg := &gorm.Config{TranslateError: true}

	var opener Opener
	switch cfg.Driver {
	case DriverPostgres:
		// 不正なDSNはリトライしても直らないので先に弾く
		if _, err := pgx.ParseConfig(dsn); err != nil {
			return nil, fmt.Errorf("invalid postgres dsn: %w", err)
		}
		opener = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gcfg)
		}
	case DriverSQLite:
		opener = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gcfg)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	gdb, err := ConnectWithRetry(dsn, timeout, opener)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// SQLiteは書き込みを直列化するため単一接続で使う
		sqlDB.SetMaxOpenConns(1)
	} else {
		maxOpen := cfg.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = defaultMaxOpenConns
		}
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen / 2)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	slog.Info("db connection successful", "driver", cfg.Driver)
	return gdb, nil
}
