package router

import (
	"fmt"
	"strings"

	"github.com/testuser-console/internal/cache"
	"github.com/testuser-console/internal/config"
	"github.com/testuser-console/internal/http/handlers/console"
	"github.com/testuser-console/internal/http/response"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/metrics"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, h *console.Handler, m *metrics.Metrics) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "tuc"
	}
	mutationRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:console_mutation", redisPrefix),
		WindowSeconds: cfg.Server.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Server.RateLimit.MaxRequests,
	}
	limitMutation := RateLimitMiddleware(cache.Client(), mutationRule, KeyByIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled && m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	api := r.Group("/api/console")
	api.Use(AccessTokenMiddleware(cfg.Server.AccessSecret))
	{
		api.GET("/state", h.GetState)
		api.GET("/events", h.Events)

		api.POST("/search", h.Search)
		api.POST("/reset", h.ResetForm)
		api.PUT("/form", h.UpdateForm)
		api.PUT("/pagination", h.UpdatePagination)

		api.PUT("/selection", h.SetSelection)
		api.DELETE("/selection", h.ClearSelection)

		api.POST("/dialog", h.OpenDialog)
		api.PUT("/dialog", h.UpdateDialog)
		api.POST("/dialog/confirm", limitMutation, h.ConfirmDialog)
		api.DELETE("/dialog", h.CancelDialog)

		api.GET("/rows/:id", h.GetRow)
		api.DELETE("/rows/:id", limitMutation, h.DeleteRow)
		api.POST("/rows/:id/active", limitMutation, h.SetActive)
		api.POST("/batch-delete", limitMutation, h.BatchDelete)

		api.GET("/prompts", h.ListPrompts)
		api.POST("/prompts/:id", h.AnswerPrompt)
	}

	return r
}
