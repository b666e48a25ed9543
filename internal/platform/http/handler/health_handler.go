// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readyTimeout は依存先ごとの疎通確認の上限時間です。
const readyTimeout = 2 * time.Second

// Check は /readyz で確認する依存先です。
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Health はプロセスの生存確認用の /healthz エンドポイントを処理します。
// 依存先には触れません。
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Ready は /readyz エンドポイントを返します。
// すべての依存先が応答した場合のみ200、いずれかが失敗した場合は503と失敗した名前を返します。
func Ready(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		failed := []string{}
		for _, chk := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			err := chk.Ping(ctx)
			cancel()
			if err != nil {
				slog.Warn("readiness check failed", "check", chk.Name, "error", err)
				failed = append(failed, chk.Name)
			}
		}

		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
