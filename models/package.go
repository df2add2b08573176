package models

import "time"

const (
	PackageReceived = "received"
	PackagePickedUp = "picked_up"
)

// Package 前台代收的快递
type Package struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	TrackingNumber string     `gorm:"size:120;index" json:"trackingNumber"`
	Carrier        string     `gorm:"size:80" json:"carrier"`
	Recipient      string     `gorm:"size:200;not null" json:"recipient"`
	Sender         string     `gorm:"size:200" json:"sender,omitempty"`
	Description    string     `gorm:"size:500" json:"description,omitempty"`
	Status         string     `gorm:"size:20;index;not null;default:'received'" json:"status"`
	ReceivedBy     string     `gorm:"size:255" json:"receivedBy"`
	ReceivedAt     time.Time  `gorm:"index;not null" json:"receivedAt"`
	PickedUpBy     *string    `gorm:"size:255" json:"pickedUpBy,omitempty"`
	PickedUpAt     *time.Time `json:"pickedUpAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Package) TableName() string { return "vv_packages" }
