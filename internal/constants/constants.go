package constants

// 提示消息样式
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// 弹窗模式
const (
	DialogModeCreate = "create"
	DialogModeEdit   = "edit"
)

// 状态筛选取值
const (
	StatusFilterAll      = ""
	StatusFilterActive   = "1"
	StatusFilterInactive = "0"
)

// 性别
const (
	GenderMale   = 0
	GenderFemale = 1
)

// 分页默认值
const (
	DefaultPageSize    = 10
	DefaultCurrentPage = 1
	MaxPageSize        = 100
)

// 远程接口路径
const (
	TestUsersPath = "/test-users"
)

// 搜索结果
const (
	SearchOutcomeOK             = "ok"
	SearchOutcomeAppError       = "app_error"
	SearchOutcomeTransportError = "transport_error"
	SearchOutcomeStale          = "stale"
)

// 删除类型与结果
const (
	DeleteKindSingle = "single"
	DeleteKindBatch  = "batch"

	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomeInvalid   = "invalid"
)

// 缓存键
const (
	CacheKeyTestUserDetail = "testuser:detail:%s"
)
