package constants

import "strings"

// 站点常量
const (
	SiteMD = "MD"
	SiteSC = "SC"
	SiteIL = "IL"
)

// Sites 全部站点（展示顺序）
var Sites = []string{SiteMD, SiteSC, SiteIL}

// NormalizeSite 统一站点编码，非法站点返回空串
func NormalizeSite(site string) string {
	normalized := strings.ToUpper(strings.TrimSpace(site))
	for _, item := range Sites {
		if item == normalized {
			return normalized
		}
	}
	return ""
}

// 外部身份中的角色声明（capabilities.CARGO）
const (
	ClaimRoleAdmin     = "ADMIN"
	ClaimRoleInspector = "INSPECTOR"
	ClaimRoleReviewer  = "REVIEWER"
	// ClaimRoleLegacyReviewer 旧前端使用的审核角色名
	ClaimRoleLegacyReviewer = "TEST"
)

// 授权角色
const (
	RoleAdmin     = "admin"
	RoleInspector = "inspector"
	RoleReviewer  = "reviewer"
)

// 人员目录角色（下拉数据）
const (
	DirectoryRoleChecker   = "checker"
	DirectoryRoleMerger    = "merger"
	DirectoryRoleLoader    = "loader"
	DirectoryRoleInspector = "inspector"
)

// DirectoryRoles 下拉数据角色列表
var DirectoryRoles = []string{
	DirectoryRoleChecker,
	DirectoryRoleMerger,
	DirectoryRoleLoader,
	DirectoryRoleInspector,
}

// 出库单操作
const (
	OutboundActionSave   = "save"
	OutboundActionSubmit = "submit"
	OutboundActionExport = "export"
)

// 校验模式
const (
	ValidationModeIncomplete = "incomplete"
	ValidationModeWaiting    = "waiting"
	ValidationModeCompleted  = "completed"
	ValidationModeNew        = "new"
)

// 检查项取值
const (
	PalletCheckOK      = "ok"
	PalletCheckProblem = "problem"
	TrailerCheckYes    = "yes"
	TrailerCheckNo     = "no"
)

// 异常筛选
const (
	AbnormalFilterAttention = "attention"
	AbnormalFilterTemp      = "temp"
	AbnormalFilterAny       = "any"
)

// 线路覆盖视图
const (
	CoverageViewDaily   = "daily"
	CoverageViewWeekly  = "weekly"
	CoverageViewMonthly = "monthly"
	CoverageViewYearly  = "yearly"
)

// 线路到期状态
const (
	DueStatusOverdue  = "overdue"
	DueStatusToday    = "due_today"
	DueStatusUpcoming = "upcoming"
)

// 导出任务类型
const (
	ExportKindOutbound     = "outbound"
	ExportKindVerification = "verification"
	ExportKindValidation   = "validation"
)

// 导出结果状态
const (
	ExportStateQueued   = "queued"
	ExportStateSent     = "sent"
	ExportStateFailed   = "failed"
	ExportStateSkipped  = "skipped"
	ExportStateDisabled = "disabled"
)

// 存储驱动
const (
	StoreDriverLocal  = "local"
	StoreDriverRemote = "remote"
)

// 队列与任务
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskExportOutbound     = "export:outbound_pdf"
	TaskExportVerification = "export:verification_pdf"
	TaskExportValidation   = "export:validation_pdf"
)

// DateLayout 交付日期格式
const DateLayout = "2006-01-02"
