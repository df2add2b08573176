package models

import "time"

const (
	PersonStaff  = "Staff"
	PersonVendor = "Vendor"
	PersonGuest  = "Guest"
)

var PersonTypes = []string{PersonStaff, PersonVendor, PersonGuest}

type Person struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FirstName  string    `gorm:"size:120;not null" json:"firstName"`
	LastName   string    `gorm:"size:120;not null" json:"lastName"`
	Type       string    `gorm:"size:16;index;not null" json:"type"`
	Company    string    `gorm:"size:200" json:"company,omitempty"`
	Department string    `gorm:"size:200" json:"department,omitempty"`
	Phone      string    `gorm:"size:40" json:"phone,omitempty"`
	AddedBy    string    `gorm:"size:255" json:"addedBy"`
	AddedAt    time.Time `gorm:"index;not null" json:"addedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Person) TableName() string { return "vv_people" }

func ValidPersonType(t string) bool {
	for _, v := range PersonTypes {
		if v == t {
			return true
		}
	}
	return false
}
