package listctl

const (
	promptTitle       = "系统提示"
	promptConfirmText = "确定"
	promptCancelText  = "取消"

	msgFetchFailed       = "获取数据失败"
	msgFetchFailedReason = "获取数据失败: %s"

	msgConfirmDelete      = "是否确认删除用户名称为%s的这条数据?"
	msgDeleted            = "已删除用户名称为%s的这条数据"
	msgDeleteFailed       = "删除失败: %s"
	msgDeleteCancelled    = "已取消删除"
	msgSelectAtLeastOne   = "请至少选择一条数据"
	msgConfirmBatchDelete = "是否确认删除选中的%d条数据?"
	msgBatchDeleteResult  = "删除成功%d条，失败%d条"

	msgDialogTitle        = "%s测试用户"
	msgDialogSubmitOK     = "%s测试用户成功"
	msgDialogSubmitFailed = "%s测试用户失败: %s"
	dialogActionCreate    = "新增"
	dialogActionEdit      = "修改"

	msgStatusEnabled      = "已启用用户名称为%s的这条数据"
	msgStatusDisabled     = "已停用用户名称为%s的这条数据"
	msgStatusUpdateFailed = "修改状态失败: %s"
)
