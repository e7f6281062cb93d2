package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error 以 {"error": msg} 形式返回错误。
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// Outcome 以 {"success", "message"} 形式返回操作结果。
func Outcome(c *gin.Context, status int, success bool, msg string) {
	c.JSON(status, gin.H{"success": success, "message": msg})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }
