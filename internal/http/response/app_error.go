package response

import "errors"

// Upstream 由上游接口错误实现，用于透出上游状态码与请求编号
type Upstream interface {
	UpstreamStatus() int
	UpstreamRequestID() string
}

// AppError 处理器错误，附带上游接口的失败信息
type AppError struct {
	Code    int
	Message string
	Err     error

	UpstreamStatus    int
	UpstreamRequestID string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HasUpstream 是否来自上游接口的非 2xx 响应
func (e *AppError) HasUpstream() bool {
	return e != nil && e.UpstreamStatus > 0
}

// UpstreamFields 上游信息，用于日志与响应 data
func (e *AppError) UpstreamFields() map[string]interface{} {
	if !e.HasUpstream() {
		return nil
	}
	fields := map[string]interface{}{"upstream_status": e.UpstreamStatus}
	if e.UpstreamRequestID != "" {
		fields["upstream_request_id"] = e.UpstreamRequestID
	}
	return fields
}

// WrapError 包装错误，错误链中有上游响应时记录其状态码与请求编号
func WrapError(code int, message string, err error) *AppError {
	appErr := &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
	var upstream Upstream
	if errors.As(err, &upstream) {
		appErr.UpstreamStatus = upstream.UpstreamStatus()
		appErr.UpstreamRequestID = upstream.UpstreamRequestID()
	}
	return appErr
}
