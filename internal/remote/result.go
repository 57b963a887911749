package remote

// Result 接口统一响应结构 {success, message, data}
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// Err success 为 false 时返回 *ApplicationError
func (r *Result[T]) Err() error {
	if r == nil {
		return &ApplicationError{}
	}
	if r.Success {
		return nil
	}
	return &ApplicationError{Message: r.Message}
}
