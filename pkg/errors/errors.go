package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型，回给客户端的错误码和消息
type AppError struct {
	Code    int    // 错误码
	Message string // 用户可见的错误消息
	Err     error  // 原始错误
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，不是 AppError 时返回服务器错误
func GetCode(err error) int {
	if err == nil {
		return CodeSuccess
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "服务器内部错误"
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 请求相关 11000-11999
	CodeInvalidParams  = 11002
	CodeUnknownCommand = 11003

	// 游戏相关 20000-20999
	CodeGameNotFound   = 20001
	CodeGameNotRunning = 20002
	CodeTooManyGames   = 20003
	CodeGameStarted    = 20004
	CodeNotGameOwner   = 20005

	// 系统错误 50000-50999
	CodeServerError = 50001
	CodeDBError     = 50002
	CodeCacheError  = 50004
)

// ============== 预定义错误 ==============

// 请求相关
var (
	ErrInvalidParams  = NewError(CodeInvalidParams, "参数校验失败")
	ErrUnknownCommand = NewError(CodeUnknownCommand, "未知指令")
)

// 游戏相关
var (
	ErrGameNotFound   = NewError(CodeGameNotFound, "游戏不存在")
	ErrGameNotRunning = NewError(CodeGameNotRunning, "游戏未在进行中")
	ErrTooManyGames   = NewError(CodeTooManyGames, "当前游戏数已满，请稍后再试")
	ErrGameStarted    = NewError(CodeGameStarted, "游戏已开始")
	ErrNotGameOwner   = NewError(CodeNotGameOwner, "无权操作他人的游戏")
)

// 系统相关
var (
	ErrServerError = NewError(CodeServerError, "服务器内部错误")
	ErrDBError     = NewError(CodeDBError, "数据库错误")
	ErrCacheError  = NewError(CodeCacheError, "缓存错误")
)
