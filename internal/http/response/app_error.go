package response

import "github.com/gin-gonic/gin"

// AppError 业务错误：响应码、本地化消息与稳定的错误标签
type AppError struct {
	Code    int
	Message string
	Tag     string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	text := e.Message
	if e.Tag != "" {
		text = e.Tag + ": " + text
	}
	if e.Err == nil {
		return text
	}
	return text + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithTag 设置错误标签与字段级标签
func (e *AppError) WithTag(tag string, fields map[string]string) *AppError {
	e.Tag = tag
	e.Fields = fields
	return e
}

// Payload 生成响应 data，未设置标签时返回 nil
func (e *AppError) Payload() gin.H {
	if e.Tag == "" && len(e.Fields) == 0 {
		return nil
	}
	data := gin.H{}
	if e.Tag != "" {
		data["error"] = e.Tag
	}
	if len(e.Fields) > 0 {
		data["fields"] = e.Fields
	}
	return data
}

// Fail 输出 AppError
func Fail(c *gin.Context, e *AppError) {
	Reject(c, e.Code, e.Message, e.Payload())
}
