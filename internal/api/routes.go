package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"caseintake/internal/api/middleware"
	"caseintake/internal/notify"
)

// TokenService issues and validates operator access tokens.
type TokenService interface {
	TokenIssuer
	middleware.TokenValidator
}

// Deps 汇总路由需要的依赖。RateCounter 与 Subscriber 为 nil 时跳过限流与 /ws。
type Deps struct {
	Intake      Submitter
	Admin       AdminService
	Queue       TaskEnqueuer
	Uploads     Uploader
	Scanner     Scanner
	Operators   Authenticator
	Tokens      TokenService
	Notifier    notify.Publisher
	RateCounter middleware.RateCounter
	Subscriber  Subscriber
	Logger      *slog.Logger

	MaxUploadBytes     int64
	IntakeLimitPerHour int
	LoginLimitPerHour  int
	AllowedOrigins     []string
}

// RegisterRoutes 注册 API 路由：公开的 /v1/intake、/v1/uploads、/v1/auth，以及需要操作员令牌的 /v1/admin。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	intakeHandler := NewIntakeHandler(deps.Intake, deps.Notifier)
	uploadHandler := NewUploadHandler(deps.Uploads, deps.Scanner, deps.MaxUploadBytes)
	authHandler := NewAuthHandler(deps.Operators, deps.Tokens)
	adminHandler := NewAdminHandler(deps.Admin, deps.Queue, deps.Notifier)
	authMiddleware := middleware.OperatorAuthMiddleware(deps.Tokens)

	intakeLimit := middleware.RateLimitByIP(deps.RateCounter, "intake", deps.IntakeLimitPerHour, time.Hour)
	loginLimit := middleware.RateLimitByIP(deps.RateCounter, "login", deps.LoginLimitPerHour, time.Hour)

	v1 := router.Group("/v1")
	{
		v1.POST("/intake", intakeLimit, intakeHandler.Submit)
		v1.POST("/uploads", intakeLimit, uploadHandler.Upload)
		v1.POST("/auth/login", loginLimit, authHandler.Login)

		if deps.Subscriber != nil {
			wsHandler := NewWsHandler(deps.Subscriber, deps.Tokens, deps.Logger, deps.AllowedOrigins)
			v1.GET("/ws", wsHandler.HandleConnection)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware)
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/export", adminHandler.ExportUsers)
			adminGroup.POST("/users/export/snapshot", adminHandler.EnqueueSnapshot)
			adminGroup.GET("/users/:id", adminHandler.GetUser)
			adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.POST("/users/:id/sheet", adminHandler.EnqueueSheet)
		}
	}
}
