package models

import "time"

// VerificationLog 记录每一次 PIN 校验（成功或失败）
type VerificationLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Username  string    `gorm:"size:255" json:"username"`
	Success   bool      `gorm:"not null" json:"success"`
	Reason    string    `gorm:"size:64" json:"reason,omitempty"`
	Hash      string    `gorm:"size:16" json:"verificationHash,omitempty"`
	ClientIP  string    `gorm:"size:45" json:"clientIp,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (VerificationLog) TableName() string { return "vv_verification_log" }
