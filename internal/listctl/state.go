package listctl

import "github.com/testuser-console/internal/models"

// DialogState 弹窗状态
type DialogState struct {
	Mode       string               `json:"mode"`
	Title      string               `json:"title"`
	Draft      models.TestUserDraft `json:"draft"`
	Submitting bool                 `json:"submitting"`
}

// State 列表控制器内部状态
type State struct {
	Form        models.QueryForm
	Loading     bool
	DataList    []models.TestUser
	SelectedNum int
	Pagination  models.Pagination
	Dialog      *DialogState
}

// Snapshot 某一时刻的只读状态副本，Version 单调递增
type Snapshot struct {
	Version     uint64            `json:"version"`
	Form        models.QueryForm  `json:"form"`
	Loading     bool              `json:"loading"`
	Columns     []Column          `json:"columns"`
	DataList    []models.TestUser `json:"data_list"`
	SelectedNum int               `json:"selected_num"`
	Pagination  models.Pagination `json:"pagination"`
	Dialog      *DialogState      `json:"dialog"`
}

// Row 按编号查找当前页数据
func (s Snapshot) Row(id string) (models.TestUser, bool) {
	for _, row := range s.DataList {
		if row.ID == id {
			return row, true
		}
	}
	return models.TestUser{}, false
}

func newState(pageSize int) State {
	return State{
		Loading:  true,
		DataList: []models.TestUser{},
		Pagination: models.Pagination{
			PageSize:    pageSize,
			CurrentPage: defaultCurrentPage,
		},
	}
}

func (s *State) snapshot(version uint64) Snapshot {
	rows := make([]models.TestUser, len(s.DataList))
	copy(rows, s.DataList)
	var dialog *DialogState
	if s.Dialog != nil {
		d := *s.Dialog
		dialog = &d
	}
	return Snapshot{
		Version:     version,
		Form:        s.Form,
		Loading:     s.Loading,
		Columns:     Columns(),
		DataList:    rows,
		SelectedNum: s.SelectedNum,
		Pagination:  s.Pagination,
		Dialog:      dialog,
	}
}
