// Package dto defines data transfer objects for the accounts feature's HTTP transport layer.
package dto

import (
	"time"

	"eva_exchange/internal/feature/accounts/domain/entity"
)

// SignupRequest is the body of POST /v1/users.
type SignupRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// UserResponse renders a user.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PortfolioResponse renders a portfolio.
type PortfolioResponse struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SignupResponse is the body returned after registration.
// Token is omitted when the server issues no tokens.
type SignupResponse struct {
	User      UserResponse      `json:"user"`
	Portfolio PortfolioResponse `json:"portfolio"`
	Token     string            `json:"token,omitempty"`
}

// NewUserResponse converts an entity into its wire form.
func NewUserResponse(u entity.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}

// NewPortfolioResponse converts an entity into its wire form.
func NewPortfolioResponse(p entity.Portfolio) PortfolioResponse {
	return PortfolioResponse{ID: p.ID, UserID: p.UserID, CreatedAt: p.CreatedAt}
}
