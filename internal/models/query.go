package models

// QueryForm 列表查询表单，空字符串表示不过滤
type QueryForm struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Status   string `json:"status"` // "1" 启用 / "0" 停用 / "" 全部
}

// IsZero 是否为空表单
func (f QueryForm) IsZero() bool {
	return f == QueryForm{}
}

// Pagination 分页状态
type Pagination struct {
	Total       int `json:"total"`
	PageSize    int `json:"page_size"`
	CurrentPage int `json:"current_page"`
}

// TotalPages 总页数
func (p Pagination) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// ListParams 列表请求参数
type ListParams struct {
	Page     int    `url:"page"`
	PageSize int    `url:"page_size"`
	Username string `url:"username,omitempty"`
	Phone    string `url:"phone,omitempty"`
	Status   *int   `url:"status,omitempty"`
}

// ListData 列表响应数据
type ListData struct {
	List        []TestUser `json:"list"`
	Items       []TestUser `json:"items"`
	Total       int        `json:"total"`
	PageSize    int        `json:"pageSize"`
	CurrentPage int        `json:"currentPage"`
}

// Rows 返回列表数据，兼容服务端使用 items 字段的情况
func (d *ListData) Rows() []TestUser {
	if d == nil {
		return nil
	}
	if d.List != nil {
		return d.List
	}
	return d.Items
}
