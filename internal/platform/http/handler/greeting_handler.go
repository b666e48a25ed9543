package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	platformhttp "eva_exchange/internal/platform/http"
)

// greetRequest は POST /v1/ のリクエストボディです。
type greetRequest struct {
	Name string `json:"name" binding:"required"`
}

// Hello は GET /v1/ の疎通確認レスポンスを返します。
// localhost 以外から呼ばれた場合は Host ヘッダーも返します。
func Hello(c *gin.Context) {
	res := gin.H{"hello": "world"}
	if host := c.Request.Host; host != "" && !strings.HasPrefix(host, "localhost") {
		res["host"] = host
	}
	c.JSON(http.StatusOK, res)
}

// Greet は POST /v1/ で受け取った名前をそのまま返します。
func Greet(c *gin.Context) {
	var req greetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformhttp.BadRequest(c, "greet", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hello": req.Name})
}
