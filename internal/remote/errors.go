package remote

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRequestFailed   = errors.New("testuser api request failed")
	ErrResponseInvalid = errors.New("testuser api response invalid")
	ErrApplication     = errors.New("testuser api returned failure")
	ErrInvalidID       = errors.New("testuser id is empty")
	ErrConfigInvalid   = errors.New("testuser api config invalid")
)

// StatusError 非 2xx 响应，属于传输层错误
type StatusError struct {
	Code      int
	Detail    string
	RequestID string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("request failed with status code %d", e.Code)
	}
	return fmt.Sprintf("request failed with status code %d: %s", e.Code, e.Detail)
}

func (e *StatusError) Unwrap() error {
	return ErrRequestFailed
}

// UpstreamStatus 上游 HTTP 状态码
func (e *StatusError) UpstreamStatus() int {
	return e.Code
}

// UpstreamRequestID 上游返回的 X-Request-ID
func (e *StatusError) UpstreamRequestID() string {
	return e.RequestID
}

// ApplicationError 接口返回 success:false
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return ErrApplication.Error()
	}
	return e.Message
}

func (e *ApplicationError) Unwrap() error {
	return ErrApplication
}

// Reason 提取适合展示给用户的错误原因
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if strings.TrimSpace(statusErr.Detail) != "" {
			return statusErr.Detail
		}
		return statusErr.Error()
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		if strings.TrimSpace(appErr.Message) == "" {
			return "请求失败"
		}
		return appErr.Message
	}
	return err.Error()
}
