// models/equipment.go
package models

import "time"

const CheckoutTable = "vv_equipment_checkouts"
const EquipmentTable = "vv_equipment"

const (
	EquipmentActive      = "active"
	EquipmentMaintenance = "maintenance"
	EquipmentRetired     = "retired"
)

// Equipment 是可签出的单件装备（对讲机、钥匙、手电）
type Equipment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Serial    string    `gorm:"size:120;uniqueIndex;not null" json:"serial"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Status    string    `gorm:"size:20;not null;default:'active'" json:"status"`
	InUse     bool      `gorm:"not null;default:false" json:"inUse"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Checkout struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	EquipmentID  uint       `gorm:"index;not null" json:"equipmentId"`
	Officer      string     `gorm:"size:255;index;not null" json:"officer"`
	CheckedOutAt time.Time  `gorm:"index;not null" json:"checkedOutAt"`
	DueAt        *time.Time `json:"dueAt,omitempty"`

	ReturnedAt *time.Time `gorm:"index" json:"returnedAt,omitempty"`
	ReturnedBy *string    `gorm:"size:255" json:"returnedBy,omitempty"`

	Note      string    `gorm:"size:255" json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Equipment) TableName() string { return EquipmentTable }
func (Checkout) TableName() string  { return CheckoutTable }
