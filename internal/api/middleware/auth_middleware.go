package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"caseintake/internal/auth"
)

const (
	operatorIDKey   = "operatorID"
	operatorNameKey = "operatorName"
)

// TokenValidator validates operator access tokens.
type TokenValidator interface {
	Validate(token string) (*auth.OperatorClaims, error)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// OperatorAuthMiddleware 校验操作员访问令牌并将 operatorID 注入上下文。
func OperatorAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			LoggerFromContext(c).Info("operator token rejected", "error", err)
			abortUnauthorized(c)
			return
		}

		c.Set(operatorIDKey, claims.OperatorID)
		c.Set(operatorNameKey, claims.Username)
		c.Next()
	}
}

// OperatorID 返回当前请求的操作员 ID；未鉴权时为 (0, false)。
func OperatorID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(operatorIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}
