package websocket

import (
	"net/http"

	constants "AidLink/pkg/constant"
	"AidLink/pkg/logger"
	"AidLink/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 通知通道的 HTTP 入口
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes 统一注册路由，r 需已挂载认证中间件
func RegisterRoutes(r gin.IRoutes, handler *Handler) {
	r.GET(RouteWebSocket, handler.HandleWebSocket)
	r.GET(RouteWebSocketStats, handler.Stats)
	r.GET(RouteWebSocketHealth, handler.HealthCheck)
}

// HandleWebSocket 升级连接并自动加入当前用户的房间
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString(constants.UserField)
	if userID == "" {
		logger.Warn("websocket rejected: unauthenticated", zap.String("ip", c.ClientIP()))
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Body{
			Code:    http.StatusUnauthorized,
			Message: "authentication required",
			Kind:    "Unauthenticated",
		})
		return
	}
	HandleWebSocket(h.hub, c.Writer, c.Request, userID)
}

// Stats 连接统计，附带调用者自己房间内的会话数
func (h *Handler) Stats(c *gin.Context) {
	stats := h.hub.config.Summary()
	stats["total_connections"] = h.hub.GetConnectionCount()
	stats["rooms"] = h.hub.GetRoomCount()
	stats["dropped"] = h.hub.GetDroppedCount()
	if uid := c.GetString(constants.UserField); uid != "" {
		stats["my_sessions"] = h.hub.GetRoomConnections(uid)
	}
	c.JSON(http.StatusOK, stats)
}

// HealthCheck hub 关闭返回 503；连接数超过上限 90% 或出现丢弃时为 degraded
func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.hub.ctx.Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "websocket hub closed"})
		return
	}
	total := h.hub.GetConnectionCount()
	limit := h.hub.config.MaxConnections
	dropped := h.hub.GetDroppedCount()

	status := "healthy"
	if total >= limit*9/10 || dropped > 0 {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            status,
		"total_connections": total,
		"max_connections":   limit,
		"dropped":           dropped,
	})
}
