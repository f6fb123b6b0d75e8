package handlers

import (
	"net/http"

	constants "AidLink/pkg/constant"
	"AidLink/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) registerSystemRoutes(engine *gin.Engine) {
	engine.GET("/health", h.HealthCheck)
	if h.gatherer != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler(h.gatherer)))
	}
}

// HealthCheck 健康检查接口
func (h *Handlers) HealthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
		return
	}

	body := gin.H{"status": "healthy", "indexedVolunteers": h.engine.Index().Len()}
	if h.hub != nil {
		body["websocketConnections"] = h.hub.GetConnectionCount()
	}
	if h.sse != nil {
		body["sseClients"] = h.sse.ClientCount()
	}
	c.JSON(http.StatusOK, body)
}

// handleEvents SSE 事件流，与 websocket 推送相同的事件
func (h *Handlers) handleEvents(c *gin.Context) {
	h.sse.Serve(c, c.GetString(constants.UserField))
}
