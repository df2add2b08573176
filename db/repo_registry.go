package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"verivault/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// People

func (r *Repo) CreatePerson(ctx context.Context, p *models.Person) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Person{}).
			Where("LOWER(first_name) = ? AND LOWER(last_name) = ? AND type = ?",
				strings.ToLower(p.FirstName), strings.ToLower(p.LastName), p.Type).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		if p.AddedAt.IsZero() {
			p.AddedAt = time.Now().UTC()
		}
		return translate(tx.Create(p).Error)
	})
}

func (r *Repo) FindPersonByID(ctx context.Context, id uint) (*models.Person, error) {
	var p models.Person
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *Repo) ListPeople(ctx context.Context, q PersonQuery) ([]models.Person, int64, error) {
	limit, offset := Page(q.Limit, q.Offset)
	tx := r.DB.WithContext(ctx).Model(&models.Person{})
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where(`LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?
			OR LOWER(first_name || ' ' || last_name) LIKE ? OR LOWER(company) LIKE ?`,
			like, like, like, like)
	}
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var people []models.Person
	if err := tx.Order("last_name ASC, first_name ASC, id ASC").
		Offset(offset).Limit(limit).Find(&people).Error; err != nil {
		return nil, 0, err
	}
	return people, total, nil
}

func (r *Repo) UpdatePerson(ctx context.Context, id uint, patch PersonPatch) (*models.Person, error) {
	var p models.Person
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		patch.apply(&p)
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *Repo) DeletePerson(ctx context.Context, id uint) error {
	return deleteByID[models.Person](ctx, r.DB, id)
}

// Packages

func (r *Repo) CreatePackage(ctx context.Context, p *models.Package) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.ReceivedAt.IsZero() {
			p.ReceivedAt = time.Now().UTC()
		}
		p.Status = models.PackageReceived
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Create(packageEntry(p)).Error
	})
}

func (r *Repo) FindPackageByID(ctx context.Context, id uint) (*models.Package, error) {
	var p models.Package
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *Repo) ListPackages(ctx context.Context, q PackageQuery) ([]models.Package, int64, error) {
	limit, offset := Page(q.Limit, q.Offset)
	tx := r.DB.WithContext(ctx).Model(&models.Package{})
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(recipient) LIKE ? OR LOWER(tracking_number) LIKE ? OR LOWER(carrier) LIKE ?", like, like, like)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var pkgs []models.Package
	if err := tx.Order("received_at DESC, id DESC").Offset(offset).Limit(limit).Find(&pkgs).Error; err != nil {
		return nil, 0, err
	}
	return pkgs, total, nil
}

func (r *Repo) UpdatePackage(ctx context.Context, id uint, patch PackagePatch) (*models.Package, error) {
	var p models.Package
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		patch.apply(&p)
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *Repo) PickupPackage(ctx context.Context, id uint, by string) (*models.Package, error) {
	var p models.Package
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if p.Status == models.PackagePickedUp {
			return ErrAlreadyPickedUp
		}
		now := time.Now().UTC()
		p.Status = models.PackagePickedUp
		p.PickedUpAt = &now
		p.PickedUpBy = &by
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *Repo) DeletePackage(ctx context.Context, id uint) error {
	return deleteByID[models.Package](ctx, r.DB, id)
}

// Daily entries

func (r *Repo) CreateEntry(ctx context.Context, e *models.DailyEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *Repo) FindEntryByID(ctx context.Context, id uint) (*models.DailyEntry, error) {
	var e models.DailyEntry
	if err := r.DB.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *Repo) ListEntries(ctx context.Context, q EntryQuery) ([]models.DailyEntry, int64, error) {
	limit, offset := Page(q.Limit, q.Offset)
	tx := r.DB.WithContext(ctx).Model(&models.DailyEntry{})
	if !q.From.IsZero() {
		tx = tx.Where("timestamp >= ?", q.From)
	}
	if !q.To.IsZero() {
		tx = tx.Where("timestamp < ?", q.To)
	}
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var entries []models.DailyEntry
	if err := tx.Order("timestamp DESC, id DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *Repo) UpdateEntry(ctx context.Context, id uint, patch EntryPatch) (*models.DailyEntry, error) {
	var e models.DailyEntry
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&e, "id = ?", id).Error; err != nil {
			return err
		}
		patch.apply(&e)
		return tx.Save(&e).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *Repo) DeleteEntry(ctx context.Context, id uint) error {
	return deleteByID[models.DailyEntry](ctx, r.DB, id)
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// packageEntry 是登记快递时顺带写入的当日记录
func packageEntry(p *models.Package) *models.DailyEntry {
	return &models.DailyEntry{
		Timestamp: p.ReceivedAt,
		Type:      models.EntryPackage,
		Details: datatypes.JSONMap{
			"packageId":      p.ID,
			"trackingNumber": p.TrackingNumber,
			"carrier":        p.Carrier,
			"recipient":      p.Recipient,
		},
		EnteredBy: p.ReceivedBy,
	}
}
