package listctl

import (
	"strings"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/models"
)

// ColumnKind 列类型
type ColumnKind string

const (
	ColumnSelection ColumnKind = "selection"
	ColumnField     ColumnKind = "field"
	ColumnOperation ColumnKind = "operation"
)

// Column 表格列定义
type Column struct {
	Label    string     `json:"label"`
	Prop     string     `json:"prop,omitempty"`
	Kind     ColumnKind `json:"kind"`
	MinWidth int        `json:"min_width,omitempty"`
}

var columns = []Column{
	{Label: "勾选列", Kind: ColumnSelection},
	{Label: "用户编号", Prop: "id", Kind: ColumnField, MinWidth: 90},
	{Label: "用户名称", Prop: "username", Kind: ColumnField, MinWidth: 130},
	{Label: "用户昵称", Prop: "nickname", Kind: ColumnField, MinWidth: 130},
	{Label: "性别", Prop: "gender", Kind: ColumnField, MinWidth: 90},
	{Label: "手机号码", Prop: "phone", Kind: ColumnField, MinWidth: 120},
	{Label: "邮箱", Prop: "email", Kind: ColumnField, MinWidth: 150},
	{Label: "状态", Prop: "is_active", Kind: ColumnField, MinWidth: 90},
	{Label: "创建时间", Prop: "created_time", Kind: ColumnField, MinWidth: 160},
	{Label: "操作", Kind: ColumnOperation, MinWidth: 180},
}

// Columns 返回列定义副本
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// Format 渲染单元格文本
func (c Column) Format(row models.TestUser) string {
	switch c.Prop {
	case "id":
		return row.ID
	case "username":
		return row.Username
	case "nickname":
		return row.Nickname
	case "gender":
		return GenderLabel(row.Gender)
	case "phone":
		return row.Phone
	case "email":
		return row.Email
	case "is_active":
		return StatusLabel(row.IsActive)
	case "created_time":
		return FormatTime(row.CreatedTime)
	case "updated_time":
		return FormatTime(row.UpdatedTime)
	}
	return ""
}

// GenderLabel 1 为女，其余为男
func GenderLabel(gender int) string {
	if gender == constants.GenderFemale {
		return "女"
	}
	return "男"
}

// StatusLabel 启用 / 停用
func StatusLabel(active bool) string {
	if active {
		return "启用"
	}
	return "停用"
}

// FormatTime 将 ISO 时间转为 "2006-01-02 15:04:05"
func FormatTime(value string) string {
	if value == "" {
		return ""
	}
	value = strings.Replace(value, "T", " ", 1)
	if len(value) > 19 {
		value = value[:19]
	}
	return value
}
