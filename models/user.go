package models

import (
	"time"
)

const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleOfficer    = "officer"
)

// User 只保存 PIN 的 sha256（PinHash），userHash 取其前 8 位
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	FullName     string `gorm:"size:255;not null" json:"fullName"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         string `gorm:"size:32;not null;default:'officer'" json:"role"`
	PinHash      string `gorm:"size:64;not null" json:"-"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "vv_users"
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
