package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "sudooom.tetrecs/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

const (
	CodeSuccess       = apperrors.CodeSuccess
	CodeInvalidParams = apperrors.CodeInvalidParams
	CodeGameNotFound  = apperrors.CodeGameNotFound
	CodeServerError   = apperrors.CodeServerError
	CodeDBError       = apperrors.CodeDBError
	CodeCacheError    = apperrors.CodeCacheError
)

var codeMessages = map[int]string{
	CodeSuccess:       "success",
	CodeInvalidParams: "参数校验失败",
	CodeGameNotFound:  "游戏不存在",
	CodeServerError:   "服务器内部错误",
	CodeDBError:       "数据库错误",
	CodeCacheError:    "缓存错误",
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int) {
	message := codeMessages[code]
	if message == "" {
		message = "unknown error"
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorFromAppError 从 AppError 生成错误响应
func ErrorFromAppError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, Response{
		Code:    apperrors.GetCode(err),
		Message: apperrors.GetMessage(err),
	})
}
