// Package handler はaccountsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eva_exchange/internal/feature/accounts/domain/entity"
	"eva_exchange/internal/feature/accounts/transport/http/dto"
	"eva_exchange/internal/feature/accounts/usecase"
	platformhttp "eva_exchange/internal/platform/http"
)

// AccountsUsecase はユーザーとポートフォリオ操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはコンシューマー（handler）が定義します。
type AccountsUsecase interface {
	Signup(ctx context.Context, name string) (entity.User, entity.Portfolio, error)
	GetUser(ctx context.Context, id uint) (entity.User, error)
	ListPortfolios(ctx context.Context) ([]entity.Portfolio, error)
}

// TokenIssuer は登録直後のユーザーにアクセストークンを発行します。
type TokenIssuer interface {
	GenerateToken(userID uint, name string) (string, error)
}

// AccountsHandler はユーザー登録と照会のHTTPリクエストを処理します。
type AccountsHandler struct {
	uc     AccountsUsecase
	tokens TokenIssuer
}

// NewAccountsHandler はAccountsHandlerの新しいインスタンスを生成します。
// tokens が nil の場合、登録レスポンスにトークンを含めません。
func NewAccountsHandler(uc AccountsUsecase, tokens TokenIssuer) *AccountsHandler {
	return &AccountsHandler{uc: uc, tokens: tokens}
}

// Signup はユーザーとポートフォリオを作成し、201を返します。
// - リクエストJSONのバインドに失敗した場合は400を返却
// - トークン発行に失敗してもユーザーは作成済みのため、トークンなしで201を返却
func (h *AccountsHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformhttp.BadRequest(c, "signup", err)
		return
	}

	user, portfolio, err := h.uc.Signup(c.Request.Context(), req.Name)
	if err != nil {
		platformhttp.RenderError(c, "signup", err)
		return
	}

	res := dto.SignupResponse{
		User:      dto.NewUserResponse(user),
		Portfolio: dto.NewPortfolioResponse(portfolio),
	}
	if h.tokens != nil {
		token, err := h.tokens.GenerateToken(user.ID, user.Name)
		if err != nil {
			slog.Error("token issue failed", "error", err, "user_id", user.ID)
		} else {
			res.Token = token
		}
	}
	slog.Info("user signup successful", "user_id", user.ID, "portfolio_id", portfolio.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, res)
}

// GetUser はIDでユーザーを返します。
func (h *AccountsHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		platformhttp.RenderError(c, "get user", usecase.ErrUserNotFound)
		return
	}
	user, err := h.uc.GetUser(c.Request.Context(), uint(id))
	if err != nil {
		platformhttp.RenderError(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// QueryPortfolios は登録済みのすべてのポートフォリオを返します。
func (h *AccountsHandler) QueryPortfolios(c *gin.Context) {
	portfolios, err := h.uc.ListPortfolios(c.Request.Context())
	if err != nil {
		platformhttp.RenderError(c, "query portfolios", err)
		return
	}
	out := make([]dto.PortfolioResponse, 0, len(portfolios))
	for _, p := range portfolios {
		out = append(out, dto.NewPortfolioResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"portfolios": out})
}
