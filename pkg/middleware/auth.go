package middleware

import (
	"errors"
	"net/http"
	"strings"

	"AidLink/internal/models"
	constants "AidLink/pkg/constant"
	apperrors "AidLink/pkg/errors"
	"AidLink/pkg/logger"
	"AidLink/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Authenticate 认证由上游网关完成，这里读取 X-User-ID 并加载用户；未知用户返回 401
func Authenticate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(constants.UserIDHeader))
		if uid == "" {
			abortUnauthenticated(c, "authentication required")
			return
		}
		user, err := models.GetUserByID(db.WithContext(c.Request.Context()), uid)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			abortUnauthenticated(c, "unknown user")
			return
		}
		if err != nil {
			logger.Error("load current user failed", zap.String("user_id", uid), zap.Error(err))
			response.Error(c, apperrors.Storage(err, "load current user failed"))
			return
		}
		c.Set(constants.UserField, user.ID)
		c.Set(constants.UserObjField, user)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.Body{
		Code:    http.StatusUnauthorized,
		Message: msg,
		Kind:    "Unauthenticated",
	})
}
