package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"caseintake/internal/api/middleware"
	"caseintake/internal/auth"
	"caseintake/internal/database"
)

// Authenticator checks operator credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*database.Operator, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(operatorID uint, username string) (auth.AccessToken, error)
}

// AuthHandler 处理操作员登录。
type AuthHandler struct {
	operators Authenticator
	tokens    TokenIssuer
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(operators Authenticator, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{operators: operators, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=72"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login 校验口令并返回访问令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "username and password are required")
		return
	}

	logger := middleware.LoggerFromContext(c).With(slog.String("username", req.Username))

	op, err := h.operators.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		logger.Info("login failed")
		Unauthorized(c)
		return
	}
	if err != nil {
		logger.Error("login lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	token, err := h.tokens.Issue(op.ID, op.Username)
	if err != nil {
		logger.Error("issue token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("operator logged in", slog.Uint64("operator_id", uint64(op.ID)))
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(token.ExpiresAt).Seconds()),
	})
}
