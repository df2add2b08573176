package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EntryGuest   = "guest"
	EntryVendor  = "vendor"
	EntryPackage = "package"
	EntryNote    = "note"
)

var EntryTypes = []string{EntryGuest, EntryVendor, EntryPackage, EntryNote}

// DailyEntry 是当班日志里的一行
type DailyEntry struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Timestamp time.Time         `gorm:"index;not null" json:"timestamp"`
	Type      string            `gorm:"size:16;index;not null" json:"type"`
	Details   datatypes.JSONMap `gorm:"type:jsonb" json:"details"`
	EnteredBy string            `gorm:"size:255" json:"enteredBy"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (DailyEntry) TableName() string { return "vv_daily_entries" }

func ValidEntryType(t string) bool {
	for _, v := range EntryTypes {
		if v == t {
			return true
		}
	}
	return false
}
