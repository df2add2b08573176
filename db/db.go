package db

import (
	"fmt"
	"log/slog"

	"verivault/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect 打开 Postgres 并执行迁移
func Connect(dsn string, log *slog.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database connected")
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.VerificationLog{},
		&models.Person{},
		&models.Package{},
		&models.DailyEntry{},
		&models.Report{},
		&models.DailyLog{},
		&models.Equipment{},
		&models.Checkout{},
	); err != nil {
		return err
	}

	// 同一装备最多一条未归还记录
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_equipment
	  ON %s (equipment_id)
	  WHERE returned_at IS NULL;
	`, models.CheckoutTable, models.CheckoutTable)).Error; err != nil {
		return err
	}

	// 姓名 + 类型 不区分大小写唯一
	return db.Exec(`
	  CREATE UNIQUE INDEX IF NOT EXISTS vv_people_name_type
	  ON vv_people (LOWER(first_name), LOWER(last_name), type);
	`).Error
}
