package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ReportSubmitted = "submitted"
	ReportGenerated = "generated"
)

// Attachment 的物理文件在 uploads 目录，随父记录删除
type Attachment struct {
	OriginalName string `json:"originalName"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	Mimetype     string `json:"mimetype"`
	UploadPath   string `json:"uploadPath"`
}

// Verification 是提交时携带的 verificationData
type Verification struct {
	UserID           uint      `json:"userId"`
	Username         string    `gorm:"size:255" json:"username"`
	Timestamp        time.Time `json:"timestamp"`
	PINVerified      bool      `json:"pinVerified"`
	VerificationHash string    `gorm:"size:16" json:"verificationHash"`
}

type Report struct {
	ID           uint                          `gorm:"primaryKey" json:"id"`
	SubmissionID string                        `gorm:"size:32;uniqueIndex;not null" json:"submissionId"`
	ReportType   string                        `gorm:"size:40;index;not null" json:"reportType"`
	FormData     datatypes.JSONMap             `gorm:"type:jsonb" json:"formData"`
	Verification Verification                  `gorm:"embedded;embeddedPrefix:verification_" json:"verificationData"`
	Attachments  datatypes.JSONSlice[Attachment] `gorm:"type:jsonb" json:"attachments"`
	Status       string                        `gorm:"size:20;not null" json:"status"`
	ContentHash  string                        `gorm:"size:64" json:"contentHash"`
	GeneratedBy  string                        `gorm:"size:255" json:"generatedBy"`
	CreatedAt    time.Time                     `gorm:"index" json:"createdAt"`
}

func (Report) TableName() string { return "vv_reports" }

// DailyLog 是整班提交（DL- 编号）
type DailyLog struct {
	ID           uint                          `gorm:"primaryKey" json:"id"`
	SubmissionID string                        `gorm:"size:32;uniqueIndex;not null" json:"submissionId"`
	FormData     datatypes.JSONMap             `gorm:"type:jsonb" json:"formData"`
	Verification Verification                  `gorm:"embedded;embeddedPrefix:verification_" json:"verificationData"`
	Attachments  datatypes.JSONSlice[Attachment] `gorm:"type:jsonb" json:"attachments"`
	Status       string                        `gorm:"size:20;not null" json:"status"`
	SubmittedBy  string                        `gorm:"size:255" json:"submittedBy"`
	CreatedAt    time.Time                     `gorm:"index" json:"createdAt"`
}

func (DailyLog) TableName() string { return "vv_daily_logs" }
