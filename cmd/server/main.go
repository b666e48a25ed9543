package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redisv9 "github.com/redis/go-redis/v9"

	"eva_exchange/internal/app/di"
	"eva_exchange/internal/app/router"
	"eva_exchange/internal/app/schema"
	accountshandler "eva_exchange/internal/feature/accounts/transport/handler"
	stockshandler "eva_exchange/internal/feature/stocks/transport/handler"
	tradinghandler "eva_exchange/internal/feature/trading/transport/handler"
	"eva_exchange/internal/platform/cache"
	platformdb "eva_exchange/internal/platform/db"
	"eva_exchange/internal/platform/http/handler"
	jwtmw "eva_exchange/internal/platform/jwt"
	"eva_exchange/internal/platform/logger"
	"eva_exchange/internal/platform/metrics"
	platformredis "eva_exchange/internal/platform/redis"
	"eva_exchange/internal/shared/ratelimiter"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .envを読み込む
	envErr := godotenv.Load(".env")
	logger.Setup()
	if envErr != nil {
		slog.Info(".env not found; using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	dbCfg := platformdb.LoadConfigFromEnv()
	db, err := platformdb.Open(dbCfg)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if dbCfg.RunMigrations {
		if err := schema.Migrate(db); err != nil {
			slog.Error("failed to migrate", "error", err)
			os.Exit(1)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("failed to get sql.DB", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Redis
	var rdb *redisv9.Client
	readyChecks := []handler.Check{{Name: "db", Ping: sqlDB.PingContext}}
	if platformredis.Enabled() {
		if tmp, err := platformredis.NewRedisClient(ctx); err != nil {
			slog.Warn("Redis unavailable. Running without quote cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
			readyChecks = append(readyChecks, handler.Check{Name: "redis", Ping: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}})
		}
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Usecase
	svc := di.NewServices(db, di.Options{Redis: rdb, QuoteTTL: quoteTTL(), Metrics: m})

	// JWT_SECRETチェック
	jwtCfg := jwtmw.LoadConfigFromEnv()
	authDisabled := os.Getenv("AUTH_DISABLED") == "true"
	var tokens accountshandler.TokenIssuer
	if jwtCfg.Secret != "" {
		tokens = jwtmw.NewGenerator(jwtCfg.Secret, jwtCfg.Expiration)
	} else if !authDisabled {
		slog.Warn("JWT_SECRET is not set; trade routes will reject every request")
	}

	// Handler
	h := router.Handlers{
		Accounts: accountshandler.NewAccountsHandler(svc.Accounts, tokens),
		Stocks:   stockshandler.NewStocksHandler(svc.Stocks),
		Trading:  tradinghandler.NewTradingHandler(svc.Trading, svc.Accounts),
	}

	// ルータ生成
	r := router.NewRouter(h, router.Config{
		AllowOrigins: splitList(os.Getenv("CORS_ALLOW_ORIGINS")),
		JWTSecret:    jwtCfg.Secret,
		AuthDisabled: authDisabled,
		Limiter:      ratelimiter.LoadFromEnv(),
		Gatherer:     reg,
		ReadyChecks:  readyChecks,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr, "auth_disabled", authDisabled, "quote_cache", rdb != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func quoteTTL() time.Duration {
	if d, err := time.ParseDuration(os.Getenv("QUOTE_CACHE_TTL")); err == nil && d > 0 {
		return d
	}
	return cache.DefaultQuoteTTL
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
