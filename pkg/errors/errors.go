package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// 错误码即错误类型，HTTP 状态码 = Code / 100
const (
	CodeValidation         = 40001
	CodeUnauthorized       = 40301
	CodeNotFound           = 40401
	CodeInvalidTransition  = 40901
	CodeAlreadyClaimed     = 40902
	CodeDuplicateResponse  = 40903
	CodeStorageUnavailable = 50301
)

var kindNames = map[int]string{
	CodeValidation:         "ValidationError",
	CodeUnauthorized:       "Unauthorized",
	CodeNotFound:           "NotFound",
	CodeInvalidTransition:  "InvalidTransition",
	CodeAlreadyClaimed:     "AlreadyClaimed",
	CodeDuplicateResponse:  "DuplicateResponse",
	CodeStorageUnavailable: "StorageUnavailable",
}

// Error represents a custom error with stack trace
type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Err     error      `json:"-"` // 原始错误，不序列化
	Stack   string     `json:"stack,omitempty"`
	Context []KeyValue `json:"context,omitempty"`
}

// KeyValue represents a key-value pair for context
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements the errors.Wrapper interface
func (e *Error) Unwrap() error {
	return e.Err
}

// Kind 返回错误类型名称
func (e *Error) Kind() string {
	if name, ok := kindNames[e.Code]; ok {
		return name
	}
	return "Internal"
}

// WithCode creates a new error with code
func WithCode(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Stack:   captureStack(),
	}
}

// WithCodef creates a new error with code and formatted message
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(),
	}
}

// Validation 参数校验失败
func Validation(format string, args ...interface{}) *Error {
	return WithCodef(CodeValidation, format, args...)
}

// NotFound 实体不存在
func NotFound(entity, id string) *Error {
	return WithCodef(CodeNotFound, "%s not found", entity).WithContext("id", id)
}

// Unauthorized 调用者无权执行该操作
func Unauthorized(format string, args ...interface{}) *Error {
	return WithCodef(CodeUnauthorized, format, args...)
}

// InvalidTransition 状态不可达
func InvalidTransition(entity, from, to string) *Error {
	return WithCodef(CodeInvalidTransition, "%s cannot transition from %s to %s", entity, from, to)
}

// Storage 包装持久层故障，整个操作中止且无部分写入
func Storage(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    CodeStorageUnavailable,
		Message: message,
		Err:     err,
		Stack:   captureStack(),
	}
}

// WithContext adds context to an error
func (e *Error) WithContext(key, value string) *Error {
	if e == nil {
		return nil
	}

	// 创建新的错误实例以避免修改原始错误
	newErr := &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Stack:   e.Stack,
		Context: make([]KeyValue, len(e.Context)),
	}
	copy(newErr.Context, e.Context)
	newErr.Context = append(newErr.Context, KeyValue{Key: key, Value: value})

	return newErr
}

// captureStack captures the current stack trace
func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	// 移除顶部几行（通常是 captureStack 和 Error 相关的调用）
	lines := strings.Split(stack, "\n")
	if len(lines) > 6 {
		stack = strings.Join(lines[6:], "\n")
	}

	return strings.TrimSpace(stack)
}

// Find 返回错误链中第一个带错误码的 *Error
func Find(err error) (*Error, bool) {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return nil, false
		}
		if e.Code != 0 {
			return e, true
		}
		err = e.Err
	}
	return nil, false
}

// GetCode returns the first non-zero code in the chain
func GetCode(err error) int {
	if e, ok := Find(err); ok {
		return e.Code
	}
	return 0
}

// HasCode 检查错误链中是否包含指定错误码
func HasCode(err error, code int) bool {
	for err != nil {
		e, ok := Find(err)
		if !ok {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// HTTPStatus 将错误码映射为 HTTP 状态码
func HTTPStatus(code int) int {
	if code <= 0 {
		return 500
	}
	if status := code / 100; status >= 400 && status < 600 {
		return status
	}
	return 500
}

// Cause returns the underlying error
func Cause(err error) error {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Err != nil {
			err = e.Err
		} else {
			return err
		}
	}
	return err
}

// Format implements fmt.Formatter
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s", e.Error())
			if e.Stack != "" {
				fmt.Fprintf(s, "\n%s", e.Stack)
			}
			return
		}
		fallthrough
	case 's':
		fmt.Fprintf(s, "%s", e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
