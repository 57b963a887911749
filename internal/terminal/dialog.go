package terminal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/listctl"
	"github.com/testuser-console/internal/models"
)

const (
	inputAbort = ":q"
	inputClear = "-"
)

var errAbort = errors.New("dialog input aborted")

// DialogPresenter 终端弹窗：逐项输入表单后提交
type DialogPresenter struct {
	io *IO

	mu      sync.Mutex
	current *listctl.Dialog
}

// NewDialogPresenter 创建弹窗渲染器
func NewDialogPresenter(t *IO) *DialogPresenter {
	return &DialogPresenter{io: t}
}

// OpenDialog 记录当前弹窗并输出标题
func (p *DialogPresenter) OpenDialog(d *listctl.Dialog) {
	p.mu.Lock()
	p.current = d
	p.mu.Unlock()
	p.io.Println(p.io.Paint(ansiBold, "== "+d.Title()+" ==") +
		p.io.Paint(ansiDim, "  (回车保留当前值，"+inputClear+" 清空，"+inputAbort+" 取消)"))
}

// CloseDialog 清除当前弹窗
func (p *DialogPresenter) CloseDialog(d *listctl.Dialog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == d {
		p.current = nil
	}
}

// Current 当前打开的弹窗
func (p *DialogPresenter) Current() *listctl.Dialog {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Edit 交互填写并提交，校验失败时重新填写，提交失败时询问是否继续
func (p *DialogPresenter) Edit(ctx context.Context, d *listctl.Dialog) error {
	for {
		if err := p.fill(d); err != nil {
			_ = d.Cancel()
			if errors.Is(err, errAbort) {
				p.io.Println("已取消")
				return listctl.ErrCancelled
			}
			return err
		}

		err := d.Confirm(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, listctl.ErrValidation) {
			p.io.Println(p.io.Paint(ansiRed, "[校验失败]") + " " + validationMessage(err))
			continue
		}
		if errors.Is(err, listctl.ErrDialogClosed) {
			return err
		}

		answer, readErr := p.io.ReadLine("重新编辑? [Y/n]: ")
		if readErr != nil || strings.EqualFold(answer, "n") || strings.EqualFold(answer, "no") {
			_ = d.Cancel()
			return err
		}
	}
}

func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

type draftField struct {
	label string
	get   func(models.TestUserDraft) string
	set   func(*models.TestUserDraft, string) error
}

var draftFields = []draftField{
	{
		label: "用户名称",
		get:   func(d models.TestUserDraft) string { return d.Username },
		set:   func(d *models.TestUserDraft, v string) error { d.Username = v; return nil },
	},
	{
		label: "用户昵称",
		get:   func(d models.TestUserDraft) string { return d.Nickname },
		set:   func(d *models.TestUserDraft, v string) error { d.Nickname = v; return nil },
	},
	{
		label: "邮箱",
		get:   func(d models.TestUserDraft) string { return d.Email },
		set:   func(d *models.TestUserDraft, v string) error { d.Email = v; return nil },
	},
	{
		label: "手机号码",
		get:   func(d models.TestUserDraft) string { return d.Phone },
		set:   func(d *models.TestUserDraft, v string) error { d.Phone = v; return nil },
	},
	{
		label: "性别(0男/1女)",
		get:   func(d models.TestUserDraft) string { return strconv.Itoa(d.Gender) },
		set: func(d *models.TestUserDraft, v string) error {
			g, err := parseGender(v)
			if err != nil {
				return err
			}
			d.Gender = g
			return nil
		},
	},
	{
		label: "头像",
		get:   func(d models.TestUserDraft) string { return d.Avatar },
		set:   func(d *models.TestUserDraft, v string) error { d.Avatar = v; return nil },
	},
	{
		label: "描述",
		get:   func(d models.TestUserDraft) string { return d.Description },
		set:   func(d *models.TestUserDraft, v string) error { d.Description = v; return nil },
	},
	{
		label: "启用(y/n)",
		get: func(d models.TestUserDraft) string {
			if d.IsActive {
				return "y"
			}
			return "n"
		},
		set: func(d *models.TestUserDraft, v string) error {
			active, err := parseActive(v)
			if err != nil {
				return err
			}
			d.IsActive = active
			return nil
		},
	},
}

func (p *DialogPresenter) fill(d *listctl.Dialog) error {
	for _, field := range draftFields {
		for {
			draft, err := d.Draft()
			if err != nil {
				return err
			}
			current := field.get(draft)
			input, err := p.io.ReadLine(fmt.Sprintf("%s [%s]: ", field.label, current))
			if err != nil {
				return err
			}
			if input == inputAbort {
				return errAbort
			}
			if input == "" {
				break
			}
			if input == inputClear {
				input = ""
			}
			var setErr error
			if err := d.Update(func(dr *models.TestUserDraft) {
				setErr = field.set(dr, input)
			}); err != nil {
				return err
			}
			if setErr != nil {
				p.io.Println(p.io.Paint(ansiRed, "[输入无效]") + " " + setErr.Error())
				continue
			}
			break
		}
	}
	return nil
}

func parseGender(v string) (int, error) {
	switch strings.TrimSpace(v) {
	case "", "0", "男":
		return constants.GenderMale, nil
	case "1", "女":
		return constants.GenderFemale, nil
	}
	return constants.GenderMale, fmt.Errorf("性别只能为 0 或 1")
}

func parseActive(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "1", "true", "启用":
		return true, nil
	case "", "n", "no", "0", "false", "停用":
		return false, nil
	}
	return false, fmt.Errorf("请输入 y 或 n")
}
