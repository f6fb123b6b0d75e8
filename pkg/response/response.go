package response

import (
	"net/http"

	apperrors "AidLink/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Body 统一响应结构
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Code: 0, Message: message, Data: data})
}

// Fail 请求体无法解析等客户端错误
func Fail(c *gin.Context, message string, data interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Body{
		Code:    apperrors.CodeValidation,
		Message: message,
		Kind:    "ValidationError",
		Data:    data,
	})
}

// Error 按错误类型映射 HTTP 状态码，未分类错误不暴露内部信息
func Error(c *gin.Context, err error) {
	e, ok := apperrors.Find(err)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, Body{
			Code:    http.StatusInternalServerError,
			Message: "internal server error",
			Kind:    "Internal",
		})
		return
	}
	c.AbortWithStatusJSON(apperrors.HTTPStatus(e.Code), Body{
		Code:    e.Code,
		Message: e.Message,
		Kind:    e.Kind(),
	})
}
