package models

import (
	"time"
)

// ReviewStatus 审核状态编码（0=已批准 1=待批准），为空表示待处理
type ReviewStatus int

const (
	ReviewStatusApproved           ReviewStatus = 0
	ReviewStatusWaitingForApproval ReviewStatus = 1
)

// ReviewState 审核状态机状态
type ReviewState string

const (
	ReviewStatePending            ReviewState = "pending"
	ReviewStateWaitingForApproval ReviewState = "waiting_for_approval"
	ReviewStateApproved           ReviewState = "approved"
)

// StateOf 由存储编码推导状态，未知编码视为待处理
func StateOf(status *ReviewStatus) ReviewState {
	if status == nil {
		return ReviewStatePending
	}
	switch *status {
	case ReviewStatusApproved:
		return ReviewStateApproved
	case ReviewStatusWaitingForApproval:
		return ReviewStateWaitingForApproval
	}
	return ReviewStatePending
}

// ReviewStatusPtr 返回状态指针
func ReviewStatusPtr(status ReviewStatus) *ReviewStatus {
	return &status
}

// VerificationRecord 月度复核（站点 + YYYYMM）
type VerificationRecord struct {
	ID                 uint          `gorm:"primarykey" json:"id"`
	Name               string        `gorm:"size:6;not null;uniqueIndex:idx_verification_period" json:"name"` // YYYYMM
	Site               string        `gorm:"size:8;not null;uniqueIndex:idx_verification_period" json:"site"`
	Year               int           `gorm:"not null;index" json:"year"`
	Month              int           `gorm:"not null" json:"month"`
	VerificationStatus *ReviewStatus `gorm:"column:verification_status" json:"verificationStatus"`
	VerificationDate   *time.Time    `json:"verificationDate"`
	VerifiedBy         string        `gorm:"size:128" json:"verifiedBy"`
	Signature          string        `gorm:"type:text" json:"signature"`               // 签名图片（data URL）
	SignatureDigest    string        `gorm:"size:64" json:"signatureDigest"`           // 签名摘要
	TotalOutbounds     int           `gorm:"not null;default:0" json:"totalOutbounds"` // 出库单数量
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// TableName 指定表名
func (VerificationRecord) TableName() string {
	return "verifications"
}

// State 当前审核状态
func (r *VerificationRecord) State() ReviewState {
	if r == nil {
		return ReviewStatePending
	}
	return StateOf(r.VerificationStatus)
}

// IsApproved 是否已批准
func (r *VerificationRecord) IsApproved() bool {
	return r.State() == ReviewStateApproved
}

// ValidationRecord 年度确认（站点 + 年）
type ValidationRecord struct {
	ID               uint          `gorm:"primarykey" json:"id"`
	Year             int           `gorm:"not null;uniqueIndex:idx_validation_period" json:"year"`
	Site             string        `gorm:"size:8;not null;uniqueIndex:idx_validation_period" json:"site"`
	ValidationStatus *ReviewStatus `gorm:"column:validation_status" json:"validationStatus"`
	ValidationDate   *time.Time    `json:"validationDate"`
	ValidatedBy      string        `gorm:"size:128" json:"validatedBy"`
	Signature        string        `gorm:"type:text" json:"signature"`
	SignatureDigest  string        `gorm:"size:64" json:"signatureDigest"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// TableName 指定表名
func (ValidationRecord) TableName() string {
	return "validations"
}

// State 当前审核状态
func (r *ValidationRecord) State() ReviewState {
	if r == nil {
		return ReviewStatePending
	}
	return StateOf(r.ValidationStatus)
}

// IsApproved 是否已批准
func (r *ValidationRecord) IsApproved() bool {
	return r.State() == ReviewStateApproved
}
