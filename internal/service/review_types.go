package service

import "github.com/cargo-inspection/internal/models"

// ApproveInput 审批请求
type ApproveInput struct {
	Site      string `json:"site"`
	Period    string `json:"period"` // 月度复核 YYYYMM / YYYY-MM，年度确认 YYYY
	Signature string `json:"signature"`
}

// ApprovalAck 审批回执
// AlreadyApproved 表示记录此前已批准，本次未写入也未导出
type ApprovalAck struct {
	AlreadyApproved bool        `json:"alreadyApproved"`
	SameSignature   bool        `json:"sameSignature,omitempty"` // 重复批准时签名与已存档签名一致
	State           string      `json:"state"`
	Record          interface{} `json:"record"`
	Export          *ExportAck  `json:"export,omitempty"`
}

// MonthRow 年度概览中的月度复核行
type MonthRow struct {
	Name             string             `json:"name"`
	Month            string             `json:"month"`
	Site             string             `json:"site"`
	State            models.ReviewState `json:"state"`
	VerifiedBy       string             `json:"verifiedBy"`
	VerificationDate string             `json:"verificationDate"`
	TotalOutbounds   int                `json:"totalOutbounds"`
	Link             string             `json:"link"`
}
