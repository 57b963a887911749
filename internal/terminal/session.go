package terminal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/listctl"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/remote"
)

// ErrUnknownCommand 未知命令
var ErrUnknownCommand = errors.New("unknown command")

// DetailLookup 详情查询
type DetailLookup interface {
	Detail(ctx context.Context, id string) (*remote.Result[models.TestUser], error)
}

const helpText = `可用命令:
  search                     按当前条件查询
  filter k=v ...             设置查询条件 (username / phone / status=1|0|all)
  reset                      清空查询条件并查询
  page <n>                   跳转到第 n 页
  size <n>                   设置每页条数
  select <i,j|a-b|all>       勾选当前页的行
  unselect [i,j]             取消勾选，不带参数时全部取消
  new                        新增测试用户
  edit <i>                   修改第 i 行
  delete <i>                 删除第 i 行
  batch-delete               删除已勾选的行
  toggle <i>                 切换第 i 行的启用状态
  show <i>                   查看第 i 行详情
  help                       显示帮助
  quit                       退出`

// Session 交互式终端会话
type Session struct {
	ctl       *listctl.Controller
	io        *IO
	selection *Selection
	presenter *DialogPresenter
	table     *Table
	detail    DetailLookup
	redraw    chan struct{}
}

// NewSession 创建会话，detail 为空时 show 命令直接使用列表数据
func NewSession(ctl *listctl.Controller, t *IO, selection *Selection, presenter *DialogPresenter, detail DetailLookup) *Session {
	return &Session{
		ctl:       ctl,
		io:        t,
		selection: selection,
		presenter: presenter,
		table:     NewTable(t, selection),
		detail:    detail,
		redraw:    make(chan struct{}, 1),
	}
}

// Run 首次查询后进入命令循环，输入结束或 quit 时返回
func (s *Session) Run(ctx context.Context) error {
	unsubscribe := s.ctl.Subscribe(func(listctl.Snapshot) {
		select {
		case s.redraw <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	s.io.Println(s.io.Paint(ansiBold, "测试用户管理") + s.io.Paint(ansiDim, "  输入 help 查看命令"))
	_ = s.ctl.Search(ctx)
	s.flush()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := s.io.ReadLine("testuser> ")
		if errors.Is(err, ErrInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		quit, err := s.Exec(ctx, line)
		if err != nil {
			s.reportError(err)
		}
		if quit {
			return nil
		}
		s.flush()
	}
}

// flush 有状态变更时重绘表格
func (s *Session) flush() {
	select {
	case <-s.redraw:
		s.table.Render(s.ctl.Snapshot())
	default:
	}
}

func (s *Session) reportError(err error) {
	switch {
	case errors.Is(err, listctl.ErrCancelled),
		errors.Is(err, listctl.ErrEmptySelection):
		// 控制器已提示
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, errBadArgs),
		errors.Is(err, listctl.ErrDialogOpen), errors.Is(err, listctl.ErrDialogClosed):
		s.io.Println(s.io.Paint(ansiRed, err.Error()))
	default:
		logger.Debugw("session_command_failed", "error", err)
	}
}

var errBadArgs = errors.New("参数错误")

// Exec 执行一条命令，返回是否退出
func (s *Session) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "h", "?":
		s.io.Println(helpText)
		return false, nil
	case "search", "s":
		return false, s.ctl.Search(ctx)
	case "filter", "f":
		return false, s.filter(args)
	case "reset":
		return false, s.ctl.ResetForm(ctx)
	case "page":
		n, err := intArg(args)
		if err != nil {
			return false, err
		}
		return false, s.ctl.HandleCurrentChange(ctx, n)
	case "size":
		n, err := intArg(args)
		if err != nil {
			return false, err
		}
		return false, s.ctl.HandleSizeChange(ctx, n)
	case "select":
		return false, s.selectRows(args)
	case "unselect":
		return false, s.unselectRows(args)
	case "new":
		d, err := s.ctl.OpenDialog(constants.DialogModeCreate, nil)
		if err != nil {
			return false, err
		}
		return false, s.presenter.Edit(ctx, d)
	case "edit":
		row, err := s.rowArg(args)
		if err != nil {
			return false, err
		}
		d, err := s.ctl.OpenDialog(constants.DialogModeEdit, &row)
		if err != nil {
			return false, err
		}
		return false, s.presenter.Edit(ctx, d)
	case "delete", "del", "rm":
		row, err := s.rowArg(args)
		if err != nil {
			return false, err
		}
		if err := s.ctl.HandleDelete(ctx, row); err != nil {
			return false, err
		}
		if s.selection.IsSelected(row.ID) {
			s.ctl.HandleSelectionChange(s.selection.Unselect(row.ID))
		}
		return false, nil
	case "batch-delete", "bd":
		_, err := s.ctl.OnBatchDelete(ctx)
		return false, err
	case "toggle":
		row, err := s.rowArg(args)
		if err != nil {
			return false, err
		}
		return false, s.ctl.ToggleActive(ctx, row, !row.IsActive)
	case "show":
		row, err := s.rowArg(args)
		if err != nil {
			return false, err
		}
		return false, s.show(ctx, row)
	}
	return false, fmt.Errorf("%w: %s (输入 help 查看命令)", ErrUnknownCommand, cmd)
}

func (s *Session) filter(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: filter username=xx phone=xx status=1|0|all", errBadArgs)
	}
	form := s.ctl.Snapshot().Form
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%w: %s", errBadArgs, arg)
		}
		switch strings.ToLower(key) {
		case "username", "name":
			form.Username = value
		case "phone":
			form.Phone = value
		case "status":
			status, err := parseStatusFilter(value)
			if err != nil {
				return err
			}
			form.Status = status
		default:
			return fmt.Errorf("%w: 未知条件 %s", errBadArgs, key)
		}
	}
	s.ctl.SetForm(form)
	s.io.Println(s.io.Paint(ansiDim, "已设置查询条件，输入 search 查询"))
	return nil
}

func parseStatusFilter(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all", "全部":
		return constants.StatusFilterAll, nil
	case "1", "on", "active", "启用":
		return constants.StatusFilterActive, nil
	case "0", "off", "inactive", "停用":
		return constants.StatusFilterInactive, nil
	}
	return "", fmt.Errorf("%w: status 只能为 1、0 或 all", errBadArgs)
}

func (s *Session) selectRows(args []string) error {
	snap := s.ctl.Snapshot()
	var rows []models.TestUser
	if len(args) == 1 && strings.EqualFold(args[0], "all") {
		rows = snap.DataList
	} else {
		indexes, err := parseIndexes(args, len(snap.DataList))
		if err != nil {
			return err
		}
		for _, i := range indexes {
			rows = append(rows, snap.DataList[i])
		}
	}
	s.ctl.HandleSelectionChange(s.selection.Select(rows...))
	return nil
}

func (s *Session) unselectRows(args []string) error {
	if len(args) == 0 {
		s.ctl.OnSelectionCancel()
		return nil
	}
	snap := s.ctl.Snapshot()
	indexes, err := parseIndexes(args, len(snap.DataList))
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(indexes))
	for _, i := range indexes {
		ids = append(ids, snap.DataList[i].ID)
	}
	s.ctl.HandleSelectionChange(s.selection.Unselect(ids...))
	return nil
}

func (s *Session) show(ctx context.Context, row models.TestUser) error {
	if s.detail != nil {
		res, err := s.detail.Detail(ctx, row.ID)
		if err == nil {
			err = res.Err()
		}
		if err != nil {
			s.io.Println(s.io.Paint(ansiRed, "[错误]") + " 获取详情失败: " + remote.Reason(err))
			return err
		}
		row = res.Data
	}
	s.io.Printf("%s", FormatDetail(row))
	return nil
}

// FormatDetail 详情文本
func FormatDetail(row models.TestUser) string {
	var b strings.Builder
	items := [][2]string{
		{"用户编号", row.ID},
		{"用户名称", row.Username},
		{"用户昵称", row.Nickname},
		{"邮箱", row.Email},
		{"手机号码", row.Phone},
		{"性别", listctl.GenderLabel(row.Gender)},
		{"头像", row.Avatar},
		{"描述", row.Description},
		{"状态", listctl.StatusLabel(row.IsActive)},
		{"创建时间", listctl.FormatTime(row.CreatedTime)},
		{"更新时间", listctl.FormatTime(row.UpdatedTime)},
	}
	for _, item := range items {
		fmt.Fprintf(&b, "%s: %s\n", item[0], item[1])
	}
	return b.String()
}

func (s *Session) rowArg(args []string) (models.TestUser, error) {
	snap := s.ctl.Snapshot()
	if len(args) != 1 {
		return models.TestUser{}, fmt.Errorf("%w: 需要一个行号", errBadArgs)
	}
	indexes, err := parseIndexes(args, len(snap.DataList))
	if err != nil {
		return models.TestUser{}, err
	}
	return snap.DataList[indexes[0]], nil
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: 需要一个数字", errBadArgs)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s 不是正整数", errBadArgs, args[0])
	}
	return n, nil
}

// parseIndexes 解析 1 基行号，支持 "1,3" "1 3" "2-4"，返回去重后的 0 基下标
func parseIndexes(args []string, count int) ([]int, error) {
	var out []int
	seen := make(map[int]bool)
	add := func(n int) error {
		if n < 1 || n > count {
			return fmt.Errorf("%w: 行号 %d 超出范围 1-%d", errBadArgs, n, count)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n-1)
		}
		return nil
	}
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if lo, hi, ok := strings.Cut(part, "-"); ok {
				a, errA := strconv.Atoi(lo)
				b, errB := strconv.Atoi(hi)
				if errA != nil || errB != nil || a > b {
					return nil, fmt.Errorf("%w: %s", errBadArgs, part)
				}
				for n := a; n <= b; n++ {
					if err := add(n); err != nil {
						return nil, err
					}
				}
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", errBadArgs, part)
			}
			if err := add(n); err != nil {
				return nil, err
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: 需要行号", errBadArgs)
	}
	return out, nil
}
