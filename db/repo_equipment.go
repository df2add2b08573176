package db

import (
	"context"
	"errors"
	"time"

	"verivault/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repo) CreateEquipment(ctx context.Context, e *models.Equipment) error {
	if e.Status == "" {
		e.Status = models.EquipmentActive
	}
	return translate(r.DB.WithContext(ctx).Create(e).Error)
}

func (r *Repo) FindEquipmentByID(ctx context.Context, id uint) (*models.Equipment, error) {
	var e models.Equipment
	if err := r.DB.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// 签出：锁住装备 → 占用 in_use → 新建 checkout
func (r *Repo) CheckoutEquipment(ctx context.Context, officer string, equipmentID uint, dueAt *time.Time, note string) (*models.Checkout, error) {
	var co *models.Checkout
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e models.Equipment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&e, "id = ?", equipmentID).Error; err != nil {
			return err
		}
		if e.Status != models.EquipmentActive {
			return ErrInactive
		}
		if e.InUse {
			return ErrAlreadyCheckedOut
		}
		var n int64
		if err := tx.Model(&models.Checkout{}).
			Where("equipment_id = ? AND returned_at IS NULL", equipmentID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyCheckedOut
		}
		if err := tx.Model(&models.Equipment{}).
			Where("id = ? AND in_use = FALSE", e.ID).
			Update("in_use", true).Error; err != nil {
			return err
		}

		c := newCheckout(e.ID, officer, dueAt, note)
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		co = c
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyCheckedOut
		}
		return nil, translate(err)
	}
	return co, nil
}

// 归还：完成 checkout → 释放 in_use；重复归还直接返回
func (r *Repo) ReturnCheckout(ctx context.Context, checkoutID uint, returnedBy string) (*models.Checkout, error) {
	var c models.Checkout
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, "id = ?", checkoutID).Error; err != nil {
			return err
		}
		if c.ReturnedAt != nil {
			return nil
		}
		now := time.Now().UTC()
		c.ReturnedAt = &now
		c.ReturnedBy = &returnedBy
		if err := tx.Save(&c).Error; err != nil {
			return err
		}
		return tx.Model(&models.Equipment{}).
			Where("id = ?", c.EquipmentID).
			Update("in_use", false).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *Repo) ListCheckouts(ctx context.Context, q CheckoutQuery) ([]models.Checkout, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Checkout{}).Order("checked_out_at DESC, id DESC")
	if q.Officer != "" {
		tx = tx.Where("officer = ?", q.Officer)
	}
	if q.EquipmentID != 0 {
		tx = tx.Where("equipment_id = ?", q.EquipmentID)
	}
	switch q.Status {
	case "open":
		tx = tx.Where("returned_at IS NULL")
	case "returned":
		tx = tx.Where("returned_at IS NOT NULL")
	}
	var cs []models.Checkout
	if err := tx.Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

// 未指定归还时间默认当班 12 小时
func newCheckout(equipmentID uint, officer string, dueAt *time.Time, note string) *models.Checkout {
	now := time.Now().UTC()
	if dueAt == nil {
		d := now.Add(12 * time.Hour)
		dueAt = &d
	}
	return &models.Checkout{
		EquipmentID:  equipmentID,
		Officer:      officer,
		CheckedOutAt: now,
		DueAt:        dueAt,
		Note:         note,
	}
}
