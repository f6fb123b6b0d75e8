package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"AidLink/pkg/cache"
	constants "AidLink/pkg/constant"
	"AidLink/pkg/response"

	"github.com/gin-gonic/gin"
)

type IdempotencyConfig struct {
	HeaderName string        // 默认 Idempotency-Key
	TTL        time.Duration // 重复请求的拒绝窗口
	Store      cache.Cache   // 为空时使用本地 go-cache
}

// IdempotencyMiddleware 客户端带上幂等键时，同一用户同一路由的重复提交返回 409；未带键的请求不受影响
//
// 处理失败（状态码 >= 400）时释放幂等键，客户端可以用同一个键重试
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Store == nil {
		cfg.Store = cache.NewGoCache(cache.LocalConfig{DefaultExpiration: cfg.TTL})
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		scoped := "idem:" + c.GetString(constants.UserField) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		ok, err := cfg.Store.SetNX(c.Request.Context(), scoped, []byte(route), cfg.TTL)
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, response.Body{
				Code:    http.StatusConflict,
				Message: "duplicate request",
				Kind:    "DuplicateRequest",
			})
			return
		}
		c.Next()
		if c.Writer.Status() >= http.StatusBadRequest {
			_ = cfg.Store.Delete(context.WithoutCancel(c.Request.Context()), scoped)
		}
	}
}
