package terminal

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/testuser-console/internal/listctl"

	"github.com/mattn/go-runewidth"
)

const maxCellWidth = 32

// Table 按控制器列定义渲染当前页
type Table struct {
	io        *IO
	selection *Selection
}

// NewTable 创建表格渲染器
func NewTable(t *IO, selection *Selection) *Table {
	return &Table{io: t, selection: selection}
}

// Render 输出表格与分页信息
func (tb *Table) Render(snap listctl.Snapshot) {
	var b strings.Builder
	WriteTable(&b, snap, tb.isSelected, tb.io.Width())
	tb.io.Printf("%s", b.String())
}

func (tb *Table) isSelected(id string) bool {
	if tb.selection == nil {
		return false
	}
	return tb.selection.IsSelected(id)
}

// WriteTable 渲染为纯文本，selected 为空时不显示勾选列
func WriteTable(w io.Writer, snap listctl.Snapshot, selected func(id string) bool, width int) {
	cols := make([]listctl.Column, 0, len(snap.Columns))
	for _, col := range snap.Columns {
		if col.Kind == listctl.ColumnField {
			cols = append(cols, col)
		}
	}

	header := []string{"#"}
	if selected != nil {
		header = append(header, "选")
	}
	for _, col := range cols {
		header = append(header, col.Label)
	}
	rows := make([][]string, 0, len(snap.DataList))
	for i, row := range snap.DataList {
		cells := []string{strconv.Itoa(i + 1)}
		if selected != nil {
			mark := "[ ]"
			if selected(row.ID) {
				mark = "[x]"
			}
			cells = append(cells, mark)
		}
		for _, col := range cols {
			cells = append(cells, runewidth.Truncate(col.Format(row), maxCellWidth, "…"))
		}
		rows = append(rows, cells)
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, cells := range rows {
		for i, cell := range cells {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		out := strings.TrimRight(strings.Join(parts, "  "), " ")
		if width > 0 {
			out = runewidth.Truncate(out, width, "…")
		}
		return out
	}

	fmt.Fprintln(w, line(header))
	if len(rows) == 0 {
		fmt.Fprintln(w, "暂无数据")
	}
	for _, cells := range rows {
		fmt.Fprintln(w, line(cells))
	}
	fmt.Fprintln(w, Footer(snap))
}

// Footer 分页与勾选信息
func Footer(snap listctl.Snapshot) string {
	p := snap.Pagination
	pages := p.TotalPages()
	if pages == 0 {
		pages = 1
	}
	footer := fmt.Sprintf("共 %d 条  第 %d/%d 页  每页 %d 条", p.Total, p.CurrentPage, pages, p.PageSize)
	if snap.SelectedNum > 0 {
		footer += fmt.Sprintf("  已选 %d 项", snap.SelectedNum)
	}
	return footer
}
