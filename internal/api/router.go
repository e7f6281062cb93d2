package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caseintake/internal/api/middleware"
	"caseintake/internal/metrics"
)

const (
	healthPath  = "/health"
	metricsPath = "/metrics"
)

// NewRouter 构建 Gin 路由引擎：关联 ID、结构化日志、panic 恢复与 Prometheus 指标。
func NewRouter(logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		gin.Recovery(),
		metrics.GinMiddleware(healthPath, metricsPath),
	)

	router.GET(healthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET(metricsPath, gin.WrapH(promhttp.Handler()))

	return router
}
