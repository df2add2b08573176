// db/repo_equipment_admin.go
package db

import (
	"context"
	"strings"
	"time"

	"verivault/models"

	"gorm.io/gorm"
)

type EquipmentRow struct {
	ID        uint      `json:"id"`
	Serial    string    `json:"serial"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	InUse     bool      `json:"inUse"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// 当前未归还的签出（可空）
	CheckoutID   *uint      `json:"checkoutId,omitempty"`
	Officer      *string    `json:"officer,omitempty"`
	CheckedOutAt *time.Time `json:"checkedOutAt,omitempty"`
	DueAt        *time.Time `json:"dueAt,omitempty"`
	Overdue      bool       `json:"overdue"`
}

type EquipmentQuery struct {
	Q      string // serial/name
	Status string // "", "open", "available", "overdue", "inactive"
	Limit  int
	Offset int
}

type PagedEquipment struct {
	Total int64          `json:"total"`
	Items []EquipmentRow `json:"items"`
}

func (r *Repo) ListEquipment(ctx context.Context, q EquipmentQuery) (*PagedEquipment, error) {
	limit, offset := Page(q.Limit, q.Offset)
	db := r.DB.WithContext(ctx)

	// 每件装备当前未归还的最新一条
	sub := db.
		Table(models.CheckoutTable + " c").
		Select(`
			DISTINCT ON (c.equipment_id)
			c.id, c.equipment_id, c.officer, c.checked_out_at, c.due_at
		`).
		Where("c.returned_at IS NULL").
		Order("c.equipment_id, c.checked_out_at DESC")

	build := func() *gorm.DB {
		qry := db.
			Table(models.EquipmentTable+" e").
			Joins("LEFT JOIN (?) AS oc ON oc.equipment_id = e.id", sub)
		if s := strings.TrimSpace(q.Q); s != "" {
			pat := "%" + strings.ToLower(s) + "%"
			qry = qry.Where("LOWER(e.serial) LIKE ? OR LOWER(e.name) LIKE ?", pat, pat)
		}
		switch q.Status {
		case "open":
			qry = qry.Where("e.in_use = TRUE")
		case "available":
			qry = qry.Where("e.in_use = FALSE AND e.status = ?", models.EquipmentActive)
		case "overdue":
			qry = qry.Where("oc.due_at IS NOT NULL AND oc.due_at < NOW()")
		case "inactive":
			qry = qry.Where("e.status <> ?", models.EquipmentActive)
		}
		return qry
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []EquipmentRow
	if err := build().
		Select(`
			e.id, e.serial, e.name, e.status, e.in_use, e.created_at, e.updated_at,
			oc.id             AS checkout_id,
			oc.officer,
			oc.checked_out_at,
			oc.due_at,
			CASE WHEN oc.due_at IS NOT NULL AND oc.due_at < NOW() THEN TRUE ELSE FALSE END AS overdue
		`).
		Order("e.created_at DESC, e.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return &PagedEquipment{Total: total, Items: rows}, nil
}
