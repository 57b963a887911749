package models

import (
	"encoding/json"
	"strings"
)

// TestUser 测试用户（列表行，服务端结构原样透传）
type TestUser struct {
	ID          string `json:"id"`           // 用户编号
	Username    string `json:"username"`     // 用户名称
	Nickname    string `json:"nickname"`     // 用户昵称
	Email       string `json:"email"`        // 邮箱
	Phone       string `json:"phone"`        // 手机号码
	Gender      int    `json:"gender"`       // 性别 0 男 1 女
	Avatar      string `json:"avatar"`       // 头像
	Description string `json:"description"`  // 描述
	IsActive    bool   `json:"is_active"`    // 是否启用
	CreatedTime string `json:"created_time"` // 创建时间（服务端 ISO 字符串）
	UpdatedTime string `json:"updated_time"` // 更新时间
}

// UnmarshalJSON is_active 缺失或为 null 时视为启用
func (u *TestUser) UnmarshalJSON(data []byte) error {
	type row TestUser
	decoded := row{IsActive: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*u = TestUser(decoded)
	return nil
}

// TestUserDraft 新增/修改弹窗表单数据
type TestUserDraft struct {
	ID          string `json:"id"`
	Username    string `json:"username" validate:"required,max=150"`
	Nickname    string `json:"nickname" validate:"required,max=150"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	Phone       string `json:"phone" validate:"omitempty,cnphone"`
	Gender      int    `json:"gender" validate:"oneof=0 1"`
	Avatar      string `json:"avatar" validate:"max=100"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// NewTestUserDraft 创建默认表单（新增场景）
func NewTestUserDraft() TestUserDraft {
	return TestUserDraft{IsActive: true}
}

// DraftFromRow 由列表行生成表单，缺省字段逐项取默认值
func DraftFromRow(row *TestUser) TestUserDraft {
	if row == nil {
		return NewTestUserDraft()
	}
	return TestUserDraft{
		ID:          row.ID,
		Username:    row.Username,
		Nickname:    row.Nickname,
		Email:       row.Email,
		Phone:       row.Phone,
		Gender:      row.Gender,
		Avatar:      row.Avatar,
		Description: row.Description,
		IsActive:    row.IsActive,
	}
}

// Normalize 去除首尾空白
func (d *TestUserDraft) Normalize() {
	d.ID = strings.TrimSpace(d.ID)
	d.Username = strings.TrimSpace(d.Username)
	d.Nickname = strings.TrimSpace(d.Nickname)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Avatar = strings.TrimSpace(d.Avatar)
}
